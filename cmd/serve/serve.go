// Package serve implements the "serve" command.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/comingsoon/internal/conf"
	"github.com/tphakala/comingsoon/internal/httpcontroller"
	"github.com/tphakala/comingsoon/internal/logger"
	"github.com/tphakala/comingsoon/internal/notifyme"
	"github.com/tphakala/comingsoon/internal/observability"
	"github.com/tphakala/comingsoon/internal/session"
	"github.com/tphakala/comingsoon/internal/telemetry"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	sentryFlushTimeout     = 2 * time.Second
	metricsReadTimeout     = 5 * time.Second
)

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the landing page",
		Long:  "Start the web server hosting the coming-soon page and its signup form.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return Run(ctx, settings)
		},
	}
}

// Run wires the service together and serves until ctx is cancelled.
func Run(ctx context.Context, settings *conf.Settings) error {
	log := logger.Global().Module("main")
	log.Info("Starting comingsoon",
		logger.String("version", settings.Version),
		logger.String("build_date", settings.BuildDate))

	if err := telemetry.InitSentry(settings); err != nil {
		// Error reporting is optional; keep serving without it
		log.Warn("Sentry initialization failed", logger.Error(err))
	}
	defer telemetry.Flush(sentryFlushTimeout)

	var metrics *observability.Metrics
	if settings.Metrics.Enabled {
		m, err := observability.NewMetrics()
		if err != nil {
			return fmt.Errorf("error initializing metrics: %w", err)
		}
		metrics = m
	}

	client, err := notifyme.NewFromSettings(&settings.Signup, notifyme.WithLogger(logger.Global().Module("notifyme")))
	if err != nil {
		return fmt.Errorf("error configuring signup endpoint: %w", err)
	}
	defer client.Close()
	log.Info("Signup endpoint configured", logger.String("endpoint", client.Endpoint()))

	storeOpts := []session.Option{session.WithLogger(logger.Global().Module("session"))}
	if metrics != nil {
		storeOpts = append(storeOpts, session.WithRecorder(metrics.Signup))
	}
	store, err := session.NewStore(session.Config{
		Secret:     settings.Session.Secret,
		CookieName: settings.Session.CookieName,
		MaxAge:     settings.Session.MaxAge,
		IdleTTL:    settings.Session.IdleTTL,
		Secure:     settings.Session.Secure,
		ToastTTL:   settings.Toast.Duration,
	}, client, storeOpts...)
	if err != nil {
		return fmt.Errorf("error creating session store: %w", err)
	}
	defer store.Close()

	serverOpts := []httpcontroller.Option{httpcontroller.WithLogger(logger.Global().Module("web"))}
	if metrics != nil {
		serverOpts = append(serverOpts, httpcontroller.WithMetrics(metrics))
	}
	server, err := httpcontroller.New(settings, store, serverOpts...)
	if err != nil {
		return fmt.Errorf("error creating web server: %w", err)
	}

	var metricsServer *http.Server
	if metrics != nil && settings.Metrics.Listen != "" {
		metricsServer = newMetricsServer(settings.Metrics, metrics)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	if metricsServer != nil {
		g.Go(func() error {
			log.Info("Starting metrics server", logger.String("listen", metricsServer.Addr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		timeout := settings.WebServer.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), timeout)
		defer cancel()

		var firstErr error
		if err := server.Shutdown(shutdownCtx); err != nil {
			firstErr = err
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})

	err = g.Wait()
	log.Info("Shutdown complete")
	return err
}

// newMetricsServer serves metrics on their own listener, keeping them off
// the public port.
func newMetricsServer(cfg conf.MetricsSettings, metrics *observability.Metrics) *http.Server {
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, metrics.Handler())
	return &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadTimeout,
	}
}
