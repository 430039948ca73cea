package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/vadimbarashkov/shortlink/internal/analytics"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/metrics"
	"github.com/vadimbarashkov/shortlink/internal/service"
	"github.com/vadimbarashkov/shortlink/internal/shortcode"
	"github.com/vadimbarashkov/shortlink/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	api "github.com/vadimbarashkov/shortlink/internal/api/http"
)

func newLogger(cfg *config.Config) *httplog.Logger {
	opts := httplog.Options{
		LogLevel:        slog.LevelInfo,
		Concise:         true,
		QuietDownRoutes: []string{"/api/v1/ping", "/metrics"},
		QuietDownPeriod: 10 * time.Second,
	}

	switch cfg.Env {
	case config.EnvDev:
		opts.LogLevel = slog.LevelDebug
	default:
		opts.JSON = true
		opts.Concise = false
		opts.Tags = map[string]string{"env": cfg.Env}
	}

	return httplog.NewLogger("shortlink", opts)
}

func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := newLogger(cfg)

	// Closers run in reverse order once the server has stopped.
	var closers []closeFunc
	closeAll := func(ctx context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i](ctx))
		}
		return errors.Join(errs...)
	}

	fail := func(err error) error {
		if cerr := closeAll(context.Background()); cerr != nil {
			logger.Error("failed to release resources", slog.Any("err", cerr))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.New(ctx, tracing.Config{
			Endpoint:    cfg.Tracing.Endpoint,
			Insecure:    cfg.Tracing.Insecure,
			ServiceName: cfg.Tracing.ServiceName,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, tp.Shutdown)
	}

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeStore)

	sink, closeSink, err := newSink(cfg, logger.Logger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeSink)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	tracker := analytics.NewTracker(store, sink,
		analytics.WithWorkers(cfg.Analytics.Workers),
		analytics.WithQueueSize(cfg.Analytics.QueueSize),
		analytics.WithTimeout(cfg.Analytics.Timeout),
		analytics.WithLogger(logger.Logger),
		analytics.WithMetrics(m),
	)
	closers = append(closers, tracker.Close)

	urlSvc := service.NewURLService(store, tracker,
		service.WithGenerator(shortcode.NewGenerator(cfg.ShortCode.Length)),
		service.WithMaxRetries(cfg.ShortCode.MaxRetries),
		service.WithLogger(logger.Logger),
		service.WithMetrics(m),
	)

	router := api.NewRouter(logger, urlSvc,
		api.WithBaseURL(cfg.BaseURL),
		api.WithMetrics(reg),
	)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        otelhttp.NewHandler(router, "shortlink"),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server",
			slog.String("addr", server.Addr),
			slog.String("env", cfg.Env),
			slog.String("store", cfg.Store.Driver),
			slog.String("sink", cfg.Analytics.Sink),
		)

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
		defer cancel()

		var errs []error

		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("%s: failed to shutdown server: %w", op, err))
		}

		if err := closeAll(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("%s: failed to release resources: %w", op, err))
		}

		logger.Info("http server stopped")

		return errors.Join(errs...)
	})

	return g.Wait()
}
