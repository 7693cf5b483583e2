// Package app wires configuration, logging, telemetry, the sheet client,
// the data service and the HTTP surface into one runnable unit.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"leadpulse/internal/config"
	apierrors "leadpulse/internal/errors"
	"leadpulse/internal/exporter"
	"leadpulse/internal/infrastructure"
	"leadpulse/internal/middleware"
	"leadpulse/internal/services"
	"leadpulse/internal/sheets"
	transporthttp "leadpulse/internal/transport/http"
	"leadpulse/internal/websocket"
)

// Version is stamped at build time.
var Version = "dev"

// App holds the assembled application.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	otel        *infrastructure.OTelProviders
	dataService *services.DataService
	hub         *websocket.Hub
	server      *http.Server
}

// New assembles the application from configuration. The returned App is
// ready for Run.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(logger)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry: %w", err)
	}

	sheetClient, err := sheets.NewClient(ctx, cfg.Sheets, logger)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	hub := websocket.NewHub(logger)
	dataService := services.NewDataService(sheetClient, logger,
		services.WithMetrics(otelProviders.Metrics),
		services.WithBroadcaster(hub),
		services.WithRefreshInterval(cfg.Refresh.Interval),
	)

	a := &App{
		Config:      cfg,
		Logger:      logger,
		otel:        otelProviders,
		dataService: dataService,
		hub:         hub,
	}
	a.server = &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      a.router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return a, nil
}

func (a *App) router() chi.Router {
	cfg := a.Config
	errorHandler := apierrors.NewErrorHandler(a.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StructuredLogger(a.Logger))
	r.Use(middleware.Recoverer(a.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Compress(5))
	if cfg.Security.EnableCORS {
		r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.Security.AllowedOrigins}))
	}
	if cfg.Security.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.Security.RateLimit.RPS, cfg.Security.RateLimit.Burst, a.Logger)
		r.Use(limiter.Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	dataHandler := transporthttp.NewDataHandler(a.dataService, a.Logger, errorHandler)
	healthHandler := transporthttp.NewHealthHandler(a.dataService, Version)

	var capturer transporthttp.ChartCapturer
	if cfg.Export.ChartBaseURL != "" {
		capturer = exporter.NewChartCapturer(cfg.Export.ChartBaseURL, cfg.Export.CaptureWait, a.Logger)
	}
	exportHandler := transporthttp.NewExportHandler(transporthttp.ExportHandlerConfig{
		Service:      a.dataService,
		Composer:     exporter.NewComposer(a.Logger, a.otel.Metrics),
		Capturer:     capturer,
		ReportTitle:  cfg.Export.ReportTitle,
		Logger:       a.Logger,
		ErrorHandler: errorHandler,
		Metrics:      a.otel.Metrics,
		Broadcaster:  a.hub,
	})

	wsHandler := websocket.NewHandler(a.hub, a.Logger, cfg.Security.AllowedOrigins)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/", dataHandler.Routes())
		r.Mount("/export", exportHandler.Routes())
		r.Mount("/health", healthHandler.Routes())
	})
	r.Handle("/ws", wsHandler)
	if a.otel.PrometheusHTTP != nil {
		r.Handle("/metrics", a.otel.PrometheusHTTP)
	}

	return r
}

// Run serves until the context is cancelled, then shuts everything down
// within the configured grace period.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.hub.Run(ctx)
	})

	if a.Config.Refresh.Enabled {
		g.Go(func() error {
			return a.dataService.Run(ctx)
		})
	} else {
		// one fetch so the API has data to serve
		if err := a.dataService.Refresh(ctx); err != nil {
			a.Logger.WarnContext(ctx, "initial refresh failed",
				slog.String("error", err.Error()))
		}
	}

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "server listening",
			slog.String("addr", a.server.Addr),
			slog.String("version", Version))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()

		a.Logger.Info("shutting down")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("server shutdown failed", slog.String("error", err.Error()))
		}
		if err := a.otel.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("telemetry shutdown failed", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// Shutdown is used by tests to stop the server directly.
func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// WaitReady blocks until the first snapshot lands or the timeout elapses.
func (a *App) WaitReady(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !a.dataService.Snapshot().FetchedAt.IsZero() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}
