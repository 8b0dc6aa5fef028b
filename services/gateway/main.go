package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/pilgrim-quotes/pkg/config"
	"github.com/diagnosis/pilgrim-quotes/pkg/logger"
	mw "github.com/diagnosis/pilgrim-quotes/pkg/middleware"
	"github.com/diagnosis/pilgrim-quotes/services/gateway/internal/handlers"
	"github.com/diagnosis/pilgrim-quotes/services/gateway/internal/proxy"
)

func main() {
	if err := run(); err != nil {
		logger.Error("Gateway service error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := handlers.New(
		proxy.NewServiceProxy("marketplace", cfg.Gateway.MarketplaceURL, cfg.Gateway.UpstreamTimeout),
		proxy.NewServiceProxy("notify", cfg.Gateway.NotifyURL, cfg.Gateway.UpstreamTimeout),
		cfg.Auth.JWTSecret,
	)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("gateway"))
	r.Use(mw.Logging)
	r.Use(middleware.Recoverer)
	r.Use(mw.CORS(cfg.Server.AllowedOrigins))
	r.Use(mw.Health)
	r.Use(mw.Metrics)
	h.Routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Gateway.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Gateway.UpstreamTimeout + cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting gateway service", "port", cfg.Gateway.Port,
			"marketplace", cfg.Gateway.MarketplaceURL, "notify", cfg.Gateway.NotifyURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down gateway service...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
