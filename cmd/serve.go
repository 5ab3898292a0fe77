package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/config"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/metrics"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/server"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownTracer := telemetry.Noop
		if cfg.Telemetry.Enabled {
			fn, err := telemetry.InitTracer(cfg.Telemetry.ServiceName)
			if err != nil {
				return err
			}
			shutdownTracer = fn
		}
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				zap.L().Warn("tracer shutdown failed", zap.Error(err))
			}
		}()

		handler, err := buildMux(cfg, metrics.New())
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", resolvePort(cfg)),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		return listenAndServe(ctx, srv)
	},
}

// buildMux wires the lead client, chat service and metrics into the router.
func buildMux(c *config.Config, m *metrics.Metrics) (http.Handler, error) {
	fetcher := newLeadsClient(c, m)
	svc, err := newChatService(c, fetcher, m)
	if err != nil {
		return nil, err
	}

	opts := server.Options{
		RequestTimeout: c.Server.RequestTimeout(),
		CORSOrigins:    c.Server.CORSOrigins,
	}
	if c.Telemetry.Enabled {
		opts.ServiceName = c.Telemetry.ServiceName
	}

	return server.New(server.Deps{
		Fetcher:  fetcher,
		Chat:     svc,
		Metrics:  m.Handler(),
		ClientID: c.Leads.ClientID,
	}, opts), nil
}

func resolvePort(c *config.Config) int {
	if servePort != 0 {
		return servePort
	}
	return c.Server.Port
}

// listenAndServe runs srv until ctx is done, then shuts it down gracefully.
func listenAndServe(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
