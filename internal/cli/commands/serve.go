package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/wirequery/internal/web/api"
	"github.com/conduit-lang/wirequery/internal/web/middleware"
	"github.com/conduit-lang/wirequery/internal/web/profiling"
	"github.com/conduit-lang/wirequery/internal/web/server"
)

type serveOptions struct {
	*globalOptions
	host string
	port int

	// listening, when set, receives the bound address before serving
	listening func(addr string)
}

func newServeCommand(global *globalOptions) *cobra.Command {
	opts := &serveOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query endpoints over HTTP",
		Long: `Start an HTTP server that parses and normalizes queries against the
schema types.

Endpoints:
  GET /health                 liveness
  GET /types                  all schema types
  GET /types/{name}           one schema type
  GET /types/{name}/query     normalize the request's $-options
  GET /stats                  parse cache statistics
  GET /routes                 registered routes

The server stops gracefully on SIGINT or SIGTERM.`,
		Example: `  # Serve with wirequery.yaml settings
  wirequery serve

  # Override the listen address
  wirequery serve --host 0.0.0.0 --port 9000 --schema schema.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "Listen host (default: server.host)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", -1, "Listen port (default: server.port)")

	return cmd
}

func (o *serveOptions) run(cmd *cobra.Command) error {
	cfg, reg, err := o.load(cmd)
	if err != nil {
		return err
	}
	if o.host != "" {
		cfg.Server.Host = o.host
	}
	if o.port >= 0 {
		cfg.Server.Port = o.port
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	handler, err := api.New(api.Config{
		Registry:       reg,
		CacheSize:      cfg.Cache.Size,
		MaxTop:         cfg.Parser.MaxTop,
		AllowedOrigins: cfg.Server.CORSOrigins,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	srvConfig := server.DefaultConfig(handler)
	srvConfig.Address = cfg.Server.Address()
	srvConfig.Logger = logger
	srv, err := server.New(srvConfig)
	if err != nil {
		return err
	}
	if err := srv.Listen(); err != nil {
		return err
	}

	gs := server.NewGracefulShutdown(srv, &server.ShutdownConfig{
		Timeout: cfg.Server.ShutdownTimeout,
		Logger:  logger,
	})
	gs.RegisterHook(func(ctx context.Context) error {
		stats := handler.Cache().Stats()
		logger.Info("parse cache",
			zap.Int("entries", stats.Entries),
			zap.Int64("hits", stats.Hits),
			zap.Int64("misses", stats.Misses))
		handler.Cache().Purge()
		return nil
	})

	if cfg.Server.PprofAddress != "" {
		pprofSrv, err := startProfiling(cfg.Server.PprofAddress, logger)
		if err != nil {
			return err
		}
		gs.RegisterHook(pprofSrv.Shutdown)
	}

	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", cfg.Schema.File, srv.Addr())
	if o.listening != nil {
		o.listening(srv.Addr())
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := gs.Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// startProfiling serves the pprof endpoints on their own listener
func startProfiling(addr string, logger *zap.Logger) (*server.Server, error) {
	stack := middleware.Chain{middleware.RequestID(), middleware.Recovery(logger.Named("pprof"))}
	pcfg := server.DefaultConfig(stack.Then(profiling.Handler(nil)))
	pcfg.Address = addr
	// profile and trace stream for up to their "seconds" parameter
	pcfg.WriteTimeout = 2 * time.Minute
	pcfg.Logger = logger.Named("pprof")

	srv, err := server.New(pcfg)
	if err != nil {
		return nil, err
	}
	if err := srv.Listen(); err != nil {
		return nil, err
	}
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("pprof server failed", zap.Error(err))
		}
	}()
	return srv, nil
}
