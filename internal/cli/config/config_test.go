package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("expected default host 'localhost', got %s", cfg.Server.Host)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("expected default shutdown timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Cache.Size != 256 {
		t.Errorf("expected default cache size 256, got %d", cfg.Cache.Size)
	}
	if cfg.Parser.MaxTop != 0 {
		t.Errorf("expected unlimited max top, got %d", cfg.Parser.MaxTop)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Log.Level)
	}
	if cfg.Server.Address() != "localhost:8080" {
		t.Errorf("expected address localhost:8080, got %s", cfg.Server.Address())
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	root := t.TempDir()
	configContent := `
server:
  port: 9090
  host: 0.0.0.0
  shutdown_timeout: 5s
  cors_origins: ["https://app.example.com", "*.example.org"]
parser:
  max_top: 500
cache:
  size: 32
log:
  level: debug
schema:
  file: schema.yaml
`
	if err := os.WriteFile(filepath.Join(root, "wirequery.yaml"), []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	// found from a nested directory
	nested := filepath.Join(root, "a", "b")
	os.MkdirAll(nested, 0755)
	chdir(t, nested)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("expected shutdown timeout 5s, got %v", cfg.Server.ShutdownTimeout)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "*.example.org" {
		t.Errorf("expected two CORS origins, got %v", cfg.Server.CORSOrigins)
	}
	if cfg.Parser.MaxTop != 500 {
		t.Errorf("expected max top 500, got %d", cfg.Parser.MaxTop)
	}
	if cfg.Cache.Size != 32 {
		t.Errorf("expected cache size 32, got %d", cfg.Cache.Size)
	}

	resolved, _ := filepath.EvalSymlinks(filepath.Dir(cfg.Schema.File))
	wantDir, _ := filepath.EvalSymlinks(root)
	if resolved != wantDir || filepath.Base(cfg.Schema.File) != "schema.yaml" {
		t.Errorf("expected schema path relative to the config file, got %s", cfg.Schema.File)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("WIREQUERY_SERVER_PORT", "7070")
	t.Setenv("WIREQUERY_SCHEMA_FILE", "/etc/wirequery/schema.yaml")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected port from environment, got %d", cfg.Server.Port)
	}
	if cfg.Schema.File != "/etc/wirequery/schema.yaml" {
		t.Errorf("expected schema file from environment, got %s", cfg.Schema.File)
	}
}

func TestLoadExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	os.WriteFile(path, []byte("cache:\n  size: 3\n"), 0644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Cache.Size != 3 {
		t.Errorf("expected cache size 3, got %d", cfg.Cache.Size)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative max top", "parser:\n  max_top: -1\n"},
		{"negative cache size", "cache:\n  size: -2\n"},
		{"port out of range", "server:\n  port: 70000\n"},
		{"unknown log level", "log:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "wirequery.yaml")
			os.WriteFile(path, []byte(tt.content), 0644)
			if _, err := Load(path); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := LogConfig{Level: level}.NewLogger()
		if err != nil {
			t.Errorf("level %s: unexpected error %v", level, err)
			continue
		}
		logger.Sync()
	}
	if _, err := (LogConfig{Level: "loud"}).NewLogger(); err == nil {
		t.Error("expected error for unknown level")
	}
}
