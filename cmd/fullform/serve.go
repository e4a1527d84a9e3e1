package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/fullform"
	"github.com/aretw0/fullform/internal/presentation/tui"
	httpAdapter "github.com/aretw0/fullform/pkg/adapters/http"
	"github.com/aretw0/fullform/pkg/displayopts"
	"github.com/aretw0/fullform/pkg/observability"
	"github.com/aretw0/fullform/pkg/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the session runtime as an HTTP server, exposing a JSON API with SSE change events and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		metrics := observability.NewMetrics()
		hooks := metrics.Hooks().Merge(observability.LoggingHooks(logger))
		mgr := newManager(cfg, b, session.WithHooks(hooks))
		defer mgr.Shutdown()

		handler := httpAdapter.NewHandler(mgr,
			httpAdapter.WithDisplayOptions(displayopts.New(b.options, displayopts.WithLogger(logger))),
			httpAdapter.WithMetrics(metrics),
			httpAdapter.WithLogger(logger),
		)

		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: handler,
		}

		if tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout, strings.TrimSpace(fullform.Version))
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting fullform server", "addr", srv.Addr, "store", cfg.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			logger.Info("Start shutdown")

			// Give outstanding requests a deadline for completion.
			timeout := cfg.Server.ShutdownTimeout()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", timeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("fullform server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "address to listen on (default from server.addr)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}
