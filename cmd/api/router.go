package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/carenote/carenote/internal/clock"
	"github.com/carenote/carenote/internal/config"
	"github.com/carenote/carenote/internal/events"
	"github.com/carenote/carenote/internal/handler"
	"github.com/carenote/carenote/internal/metrics"
	"github.com/carenote/carenote/internal/middleware"
	"github.com/carenote/carenote/internal/service"
)

// appStore is implemented by both the Postgres repository and the
// in-memory store.
type appStore interface {
	service.ReminderStore
	service.HealthRecordStore
	service.StatsReader
	events.StatsStore
	middleware.TokenStore
	handler.HealthChecker
}

type routerDeps struct {
	Store          appStore
	Idempotency    service.IdempotencyStore
	PrincipalCache middleware.PrincipalCache
	Events         service.CompletionPublisher
	// Cache is checked by /readyz when Redis is configured.
	Cache      handler.HealthChecker
	Clock      clock.Clock
	Location   *time.Location
	Metrics    metrics.Recorder
	Exposition http.Handler
	Logger     *slog.Logger
	Config     *config.Config
	// AuthDelay overrides middleware.DefaultMinAuthDuration when non-nil.
	AuthDelay *time.Duration
}

// newRouter configures the chi router with all routes and middleware.
func newRouter(d routerDeps) *chi.Mux {
	reminders := service.NewReminderService(service.ReminderServiceConfig{
		Store:           d.Store,
		Idempotency:     d.Idempotency,
		Events:          d.Events,
		Clock:           d.Clock,
		DefaultLocation: d.Location,
		Metrics:         d.Metrics,
		Logger:          d.Logger,
	})
	records := service.NewHealthRecordService(d.Store, d.Clock, d.Metrics, d.Logger)
	stats := service.NewStatsService(d.Store, d.Clock)

	healthHandler := handler.NewHealthHandler(d.Store, d.Cache)
	metricsHandler := handler.NewMetricsHandler(d.Exposition)
	reminderHandler := handler.NewReminderHandler(reminders, d.Logger)
	recordHandler := handler.NewHealthRecordHandler(records, d.Logger)
	statsHandler := handler.NewStatsHandler(stats, d.Logger)

	authDelay := middleware.DefaultMinAuthDuration
	if d.AuthDelay != nil {
		authDelay = *d.AuthDelay
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = d.Config.GetCORSAllowedOrigins()

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recoverer(d.Logger))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.SecurityHeaders(d.Config.IsDevelopment()))
	r.Use(middleware.CORS(corsCfg))

	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.MaxBodySize(d.Config.MaxRequestBodySize))
		r.Use(middleware.Auth(middleware.AuthConfig{
			Logger:      d.Logger,
			Tokens:      d.Store,
			Cache:       d.PrincipalCache,
			MinDuration: authDelay,
		}))

		r.Route("/reminders", func(r chi.Router) {
			r.Get("/", reminderHandler.List)
			r.Post("/", reminderHandler.Create)
			r.Get("/{id}", reminderHandler.Get)
			r.Post("/{id}/done", reminderHandler.MarkDone)
			r.Get("/{id}/completions", reminderHandler.Completions)
		})

		r.Route("/health", func(r chi.Router) {
			r.Get("/", recordHandler.List)
			r.Post("/", recordHandler.Create)
			r.Get("/{id}", recordHandler.Get)
			r.Put("/{id}", recordHandler.Update)
			r.Delete("/{id}", recordHandler.Delete)
		})

		r.Get("/stats", statsHandler.Daily)
	})

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}
