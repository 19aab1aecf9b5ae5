package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes environment overrides, e.g. WIREQUERY_SERVER_PORT
const EnvPrefix = "WIREQUERY"

// Config represents the wirequery configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Parser ParserConfig `mapstructure:"parser"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Log    LogConfig    `mapstructure:"log"`
	Schema SchemaConfig `mapstructure:"schema"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// CORSOrigins lists the browser origins allowed to call the server
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	// PprofAddress, when set, serves the pprof endpoints on a second listener
	PprofAddress    string        `mapstructure:"pprof_address"`
}

// ParserConfig bounds decoded queries
type ParserConfig struct {
	// MaxTop rejects larger $top values; zero means unlimited
	MaxTop int `mapstructure:"max_top"`
}

// CacheConfig sizes the parse cache
type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// LogConfig selects the logger
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SchemaConfig locates the entity schema
type SchemaConfig struct {
	File string `mapstructure:"file"`
}

// Load reads configuration from path, or from wirequery.yaml/.yml found
// in the working directory or a parent when path is empty. A missing file
// leaves the defaults in place. Environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.pprof_address", "")
	v.SetDefault("parser.max_top", 0)
	v.SetDefault("cache.size", 256)
	v.SetDefault("log.level", "info")
	v.SetDefault("schema.file", "")

	v.SetConfigType("yaml")
	if path == "" {
		path, _ = FindConfigFile()
	}
	if path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// A relative schema path is relative to the config file
	if config.Schema.File != "" && path != "" && !filepath.IsAbs(config.Schema.File) {
		config.Schema.File = filepath.Join(filepath.Dir(path), config.Schema.File)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// FindConfigFile looks for wirequery.yaml or wirequery.yml in the working
// directory and its parents
func FindConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, name := range []string{"wirequery.yaml", "wirequery.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("no wirequery.yaml found")
		}
		dir = parent
	}
}

// Address returns the host:port the server listens on
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// NewLogger builds the logger for the configured level: a development
// logger for debug, a production logger otherwise
func (l LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := parseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log.level %q: %w", l.Level, err)
	}
	if level == zapcore.DebugLevel {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got: %d", cfg.Server.Port)
	}
	if cfg.Parser.MaxTop < 0 {
		return fmt.Errorf("parser.max_top must not be negative, got: %d", cfg.Parser.MaxTop)
	}
	if cfg.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative, got: %d", cfg.Cache.Size)
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got: %s", cfg.Log.Level)
	}
	return nil
}

func parseLevel(s string) (zapcore.Level, error) {
	var level zapcore.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}
