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

	"github.com/sells-group/occupancy-map/internal/api"
	"github.com/sells-group/occupancy-map/internal/config"
)

var (
	servePort int
	serveWarm bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the occupancy choropleth and feature time series over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		return runServe(ctx, cfg, serveWarm)
	},
}

// newServer builds the HTTP server for c.
func newServer(c *config.Config) (*http.Server, func(context.Context), error) {
	builder := newBuilder(c)
	series, err := newSeriesCache(c)
	if err != nil {
		return nil, nil, err
	}

	handler := api.NewRouter(builder, series, api.Options{
		CORSOrigins:        c.Server.CORSOrigins,
		RateLimitPerMinute: c.Server.RateLimitPerMinute,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	warm := func(ctx context.Context) {
		if _, _, err := builder.Payload(ctx); err != nil {
			zap.L().Warn("choropleth warm-up failed", zap.Error(err))
		}
	}
	return srv, warm, nil
}

func runServe(ctx context.Context, c *config.Config, warm bool) error {
	if err := c.Validate("serve"); err != nil {
		return err
	}

	srv, warmUp, err := newServer(c)
	if err != nil {
		return err
	}

	if warm {
		go warmUp(context.WithoutCancel(ctx))
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", c.Server.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}

	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveWarm, "warm", false, "build the choropleth payload at startup")
	rootCmd.AddCommand(serveCmd)
}
