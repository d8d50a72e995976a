package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/tichu/internal/api"
	"github.com/mcoot/tichu/internal/config"
	"github.com/mcoot/tichu/internal/factory"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game server",
		Long: `Run the game server.

Settings come from the defaults, then the --config YAML file, then TICHU_*
environment variables (TICHU_PORT, TICHU_HEARTBEAT_INTERVAL,
TICHU_STORAGE_TYPE, TICHU_REDIS_URL, TICHU_LOG_LEVEL), then flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverCfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				serverCfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, serverCfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("TICHU_CONFIG"), "YAML config file (env: TICHU_CONFIG)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port, overrides the config")

	return cmd
}

// Serve runs the HTTP server and the heartbeat until ctx is cancelled
func Serve(ctx context.Context, serverCfg config.Config) error {
	level, err := serverCfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	app, err := factory.New(serverCfg.FactoryConfig(logger))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	if closer, ok := app.Storage.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	server := api.NewServer(app.HTTPHandler(), serverCfg.Server, logger)
	// Upgraded connections are not closed by the HTTP server itself
	server.OnShutdown(app.Sessions.CloseAll)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx)
	})
	g.Go(func() error {
		return app.Heartbeat.Run(ctx)
	})

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", serverCfg.Storage.Type))

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.Any("error", err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
