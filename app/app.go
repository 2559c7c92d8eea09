// Package app is the composition root: it opens the database, cache and
// event bus, builds every module and serves the HTTP API.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/Black-And-White-Club/hunting-party/app/modules/application"
	"github.com/Black-And-White-Club/hunting-party/app/modules/auth"
	"github.com/Black-And-White-Club/hunting-party/app/modules/party"
	"github.com/Black-And-White-Club/hunting-party/app/modules/user"
	"github.com/Black-And-White-Club/hunting-party/app/observability"
	"github.com/Black-And-White-Club/hunting-party/app/shared/cache"
	"github.com/Black-And-White-Club/hunting-party/app/shared/eventbus"
	"github.com/Black-And-White-Club/hunting-party/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// App holds every long-lived dependency of the API process.
type App struct {
	Config *config.Config
	Obs    *observability.Observability
	DB     *bun.DB
	Redis  *redis.Client
	Bus    *eventbus.PubSub
	Router chi.Router

	UserModule        *user.Module
	PartyModule       *party.Module
	ApplicationModule *application.Module

	server *http.Server
}

// NewApp builds the application from cfg. Modules are created in
// dependency order: user, party, application.
func NewApp(ctx context.Context, cfg *config.Config, obs *observability.Observability) (*App, error) {
	logger := obs.Logger

	db, err := openDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Obs: obs, DB: db}

	store := cache.Store(cache.NoopStore{})
	if cfg.Redis.Addr != "" {
		app.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := app.Redis.Ping(ctx).Err(); err != nil {
			// The leaderboard still works uncached.
			logger.WarnContext(ctx, "Redis unreachable, leaderboard cache disabled", attr.Error(err))
		} else {
			store = cache.NewRedisStore(app.Redis)
		}
	}

	bus, err := eventbus.New(eventbus.Config{URL: cfg.NATS.URL, NKeySeed: cfg.NATS.NKeySeed}, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}
	app.Bus = bus

	authModule := auth.NewModule(ctx, cfg, logger)

	root := chi.NewRouter()
	root.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	root.Get("/healthz", app.handleHealth)
	root.Handle("/metrics", promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{}))

	api := root.With(authModule.Middlewares()...)
	app.Router = root

	app.UserModule = user.NewModule(ctx, obs, db, api)
	app.PartyModule = party.NewModule(ctx, cfg, obs, db, api, app.UserModule.GetService(), store, bus)
	app.ApplicationModule, err = application.NewModule(ctx, cfg, obs, db, api, app.UserModule.GetService(), app.PartyModule.GetService())
	if err != nil {
		_ = bus.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize application module: %w", err)
	}

	app.server = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return app, nil
}

func openDB(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := app.DB.PingContext(ctx); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Run starts every module and the HTTP server, and blocks until ctx is done
// or the server fails.
func (app *App) Run(ctx context.Context) error {
	logger := app.Obs.Logger

	var wg sync.WaitGroup
	wg.Add(2)
	go app.PartyModule.Run(ctx, &wg)
	go app.ApplicationModule.Run(ctx, &wg)

	serverErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "HTTP server listening", attr.String("addr", app.server.Addr))
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serverErr:
		logger.ErrorContext(ctx, "HTTP server failed", attr.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if closeErr := app.Close(shutdownCtx); closeErr != nil {
		logger.Error("Error during shutdown", attr.Error(closeErr))
	}
	wg.Wait()
	return err
}

// Close stops the server and releases every resource, dependents first.
func (app *App) Close(ctx context.Context) error {
	var errs []error
	if app.server != nil {
		errs = append(errs, app.server.Shutdown(ctx))
	}
	if app.ApplicationModule != nil {
		errs = append(errs, app.ApplicationModule.Close(ctx))
	}
	if app.PartyModule != nil {
		errs = append(errs, app.PartyModule.Close(ctx))
	}
	if app.Bus != nil {
		errs = append(errs, app.Bus.Close())
	}
	if app.Redis != nil {
		errs = append(errs, app.Redis.Close())
	}
	if app.DB != nil {
		errs = append(errs, app.DB.Close())
	}
	return errors.Join(errs...)
}

// Logger returns the process logger.
func (app *App) Logger() *slog.Logger {
	return app.Obs.Logger
}
