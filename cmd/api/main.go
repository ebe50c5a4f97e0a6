// Package main is the entrypoint for the Carenote API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/carenote/carenote/internal/auth"
	"github.com/carenote/carenote/internal/cache"
	"github.com/carenote/carenote/internal/clock"
	"github.com/carenote/carenote/internal/config"
	"github.com/carenote/carenote/internal/events"
	"github.com/carenote/carenote/internal/metrics"
	"github.com/carenote/carenote/internal/model"
	"github.com/carenote/carenote/internal/repository"
	"github.com/carenote/carenote/internal/repository/memory"
	"github.com/carenote/carenote/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	var (
		recorder   metrics.Recorder = metrics.NewNoop()
		exposition *metrics.PrometheusRecorder
	)
	if cfg.MetricsEnabled {
		exposition = metrics.NewPrometheus()
		recorder = exposition
	}

	type closer struct {
		name string
		fn   server.ShutdownFunc
	}
	var closers []closer

	var store appStore
	switch cfg.StoreBackend {
	case config.BackendMemory:
		mem := memory.New()
		if err := bootstrapToken(ctx, mem, cfg.BootstrapUserID, logger); err != nil {
			return err
		}
		store = mem
		logger.Warn("using in-memory store; data is lost on restart")
	default:
		if cfg.AutoMigrate {
			version, err := repository.Migrate(cfg.DatabaseURL, cfg.MigrationsPath)
			if err != nil {
				return errors.New(sanitizeError(err, cfg.DatabaseURL))
			}
			logger.Info("database migrated", slog.Uint64("version", uint64(version)))
		}

		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			return errors.New("database unavailable")
		}
		closers = append(closers, closer{"postgres", func(context.Context) error { repo.Close(); return nil }})
		store = repo
		logger.Info("connected to database")
	}

	deps := routerDeps{
		Store:       store,
		Idempotency: memory.NewIdempotency(cfg.IdempotencyTTL),
		Clock:       clock.System(),
		Location:    loc,
		Metrics:     recorder,
		Logger:      logger,
		Config:      cfg,
	}
	if exposition != nil {
		deps.Exposition = exposition.Handler()
	}

	if cfg.RedisURL != "" {
		redisCache, err := cache.New(ctx, cfg.RedisURL, cfg.IdempotencyTTL)
		if err != nil {
			logger.Error("failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			return errors.New("redis unavailable")
		}
		closers = append(closers, closer{"redis", func(context.Context) error { return redisCache.Close() }})
		deps.Idempotency = redisCache
		deps.PrincipalCache = redisCache
		deps.Cache = redisCache
		deps.Events = events.NewPublisher(redisCache.Client(), logger, recorder)
		logger.Info("connected to Redis")

		worker := events.NewWorker(redisCache.Client(), store, logger, events.NewConsumerID(), recorder)
		go func() {
			if err := worker.Run(ctx); err != nil {
				logger.Error("completion stats worker stopped", "error", err)
			}
		}()
		closers = append(closers, closer{"completion-stats-worker", worker.Shutdown})
	}

	srv := server.New(newRouter(deps), server.Options{
		Addr:            ":" + strconv.Itoa(cfg.AppPort),
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	for _, c := range closers {
		srv.OnShutdown(c.name, c.fn)
	}

	logger.Info("starting server",
		slog.Int("port", cfg.AppPort),
		slog.String("env", cfg.AppEnv),
		slog.String("store", cfg.StoreBackend),
		slog.Bool("redis", cfg.RedisURL != ""),
	)

	return srv.Run(ctx)
}

// bootstrapToken creates userID and prints a fresh access token for it to
// stderr. The plaintext never goes through the logger.
func bootstrapToken(ctx context.Context, store *memory.Store, userID string, logger *slog.Logger) error {
	if userID == "" {
		return nil
	}
	user, err := store.GetOrCreateUser(ctx, &model.User{ID: userID, Email: userID + "@localhost"})
	if err != nil {
		return fmt.Errorf("bootstrap user: %w", err)
	}
	issued, err := auth.Issue(ctx, store, user.ID, "bootstrap")
	if err != nil {
		return fmt.Errorf("bootstrap token: %w", err)
	}

	logger.Info("bootstrap access token issued",
		slog.String("user_id", user.ID),
		slog.String("token_prefix", issued.Token.TokenPrefix),
	)
	fmt.Fprintf(os.Stderr, "bootstrap token for %s: %s\n", user.ID, issued.Plaintext)
	return nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
