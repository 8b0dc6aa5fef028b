package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/pilgrim-quotes/pkg/config"
	"github.com/diagnosis/pilgrim-quotes/pkg/database"
	"github.com/diagnosis/pilgrim-quotes/pkg/events"
	"github.com/diagnosis/pilgrim-quotes/pkg/logger"
	mw "github.com/diagnosis/pilgrim-quotes/pkg/middleware"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/handlers"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/repository"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/service"
)

func main() {
	var err error
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		err = migrate()
	} else {
		err = run()
	}
	if err != nil {
		logger.Error("Marketplace service error", "error", err)
		os.Exit(1)
	}
}

// migrate prepares a persistent backend and seeds it, then exits.
func migrate() error {
	cfg := config.Load()
	if cfg.Store.Backend == "memory" || cfg.Store.Backend == "" {
		return errors.New("migrate needs STORE_BACKEND=postgres or redis")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, _, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := repository.SeedIfEmpty(ctx, store); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	logger.Info("Store ready", "store", cfg.Store.Backend)
	return nil
}

func run() error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, idem, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.Store.Seed {
		if err := repository.SeedIfEmpty(ctx, store); err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
	}

	var eventBus events.EventBus = events.NopEventBus{}
	if cfg.NATS.Enabled {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer bus.Close()
		eventBus = bus
	}

	marketplace := service.NewMarketplace(store, eventBus)
	h := handlers.New(marketplace, cfg.Auth, idem)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("marketplace"))
	r.Use(mw.Logging)
	r.Use(mw.CORS(cfg.Server.AllowedOrigins))
	r.Use(mw.Health)
	r.Use(mw.Metrics)
	h.Routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting marketplace service", "port", cfg.Server.Port, "store", cfg.Store.Backend, "nats", cfg.NATS.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if c, ok := idem.(expiringStore); ok {
		g.Go(func() error {
			sweepIdempotencyKeys(gctx, c)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down marketplace service...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type expiringStore interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

func sweepIdempotencyKeys(ctx context.Context, store expiringStore) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.CleanupExpired(ctx)
			if err != nil {
				logger.Warn("Idempotency key cleanup failed", "error", err)
				continue
			}
			logger.Debug("Idempotency keys expired", "count", n)
		}
	}
}

// openStore connects the configured record store backend together with a matching
// idempotency store.
func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, mw.IdempotencyStore, func(), error) {
	switch cfg.Store.Backend {
	case "memory", "":
		return repository.NewMemoryStore(), mw.NewMemoryIdempotencyStore(), func() {}, nil

	case "postgres":
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return repository.NewPostgresStore(pool), repository.NewPostgresIdempotencyStore(pool), pool.Close, nil

	case "redis":
		client, err := database.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close Redis client", "error", err)
			}
		}
		return repository.NewRedisStore(client, cfg.Redis.KeyPrefix),
			repository.NewRedisIdempotencyStore(client, cfg.Redis.KeyPrefix), closeFn, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}
}
