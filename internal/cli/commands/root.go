package commands

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/wirequery/internal/cli/config"
	"github.com/conduit-lang/wirequery/internal/cli/ui"
	"github.com/conduit-lang/wirequery/internal/query/schema"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// errReported marks a failure whose message was already written to stderr
var errReported = errors.New("error reported")

// globalOptions are the persistent flags shared by every subcommand
type globalOptions struct {
	configPath string
	schemaPath string
	noColor    bool
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "wirequery",
		Short: "Wire query grammar parser and normalizer",
		Long: color.CyanString(`wirequery - typed query strings over HTTP

wirequery parses $filter, $orderby, $top, $skip, $select, $format and
$inlinecount options against an entity schema, reports coded errors, and
prints the canonical encoding of the query.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: wirequery.yaml in the working directory or a parent)")
	flags.StringVar(&opts.schemaPath, "schema", "", "Schema file, overrides schema.file")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newParseCommand(opts))
	rootCmd.AddCommand(newTypesCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the wirequery version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			titleColor.Fprint(out, "wirequery version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)
		},
	}
}

// load reads the configuration and the schema it points at. The --schema
// flag wins over schema.file.
func (o *globalOptions) load(cmd *cobra.Command) (*config.Config, *schema.Registry, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), nil, o.noColor))
		return nil, nil, errReported
	}
	if o.schemaPath != "" {
		cfg.Schema.File = o.schemaPath
	}
	if cfg.Schema.File == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.ConfigError(
			"No schema file configured. Pass --schema or set schema.file (WIREQUERY_SCHEMA_FILE).", nil, o.noColor))
		return nil, nil, errReported
	}

	reg, err := schema.LoadFile(cfg.Schema.File)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), nil, o.noColor))
		return nil, nil, errReported
	}
	return cfg, reg, nil
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}
