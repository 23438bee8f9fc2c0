package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KevinLongeway/Safe2Day/internal/api"
	"github.com/KevinLongeway/Safe2Day/internal/pipeline"
	"github.com/KevinLongeway/Safe2Day/internal/positions"
	"github.com/KevinLongeway/Safe2Day/internal/scanner"
	"github.com/KevinLongeway/Safe2Day/internal/selection"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			log := newLogger(cfg, cmd.ErrOrStderr())

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// Initialize pipeline.
			runner := newReportingRunner(newPipeline(cfg, log), cfg, log)
			orch := pipeline.NewOrchestrator(runner, cfg.QueueSize, cfg.JobTTL, log)
			orch.Start(ctx)

			// Initialize HTTP server.
			srv := api.NewServer(orch, scanner.New(nil, log),
				positions.NewStore(cfg.PositionsFile), selection.NewStore(cfg.SelectionFile), log, cfg)

			httpServer := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      srv,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			// Graceful shutdown.
			sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-sigCtx.Done()
				log.Info("shutting down...")

				orch.Stop()

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				httpServer.Shutdown(shutdownCtx)
			}()

			log.Info("starting safe2day", "port", cfg.Port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (default SAFE2DAY_PORT or 8090)")
	return cmd
}
