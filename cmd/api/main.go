package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/cropmarket-backend/api/routes"
	"github.com/angelmondragon/cropmarket-backend/internal/cart"
	"github.com/angelmondragon/cropmarket-backend/internal/wiring"
	"github.com/angelmondragon/cropmarket-backend/pkg/auth"
	"github.com/angelmondragon/cropmarket-backend/pkg/config"
	"github.com/angelmondragon/cropmarket-backend/pkg/logger"
	"github.com/angelmondragon/cropmarket-backend/pkg/metrics"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := wiring.Open(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap backends", err)
		os.Exit(1)
	}
	defer b.Close(context.Background(), logg)

	verifier, err := auth.NewVerifier(ctx, cfg)
	if err != nil {
		logg.Error(ctx, "failed to create token verifier", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	breaker := cart.NewRemoteBreaker(cart.BreakerSettings{
		Name:        "cart-remote",
		MaxFailures: cfg.Cart.BreakerFailures,
		OpenTimeout: cfg.Cart.BreakerTimeout,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logg.Warn(logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}), "remote breaker state changed")
		},
	})

	manager, err := cart.NewManager(cart.ManagerParams{
		LocalFor:      b.LocalFor,
		Users:         b.Users,
		Orders:        b.Orders,
		Logger:        logg,
		Metrics:       metrics.NewCartMetrics(registry),
		Breaker:       breaker,
		RemoteTimeout: cfg.Cart.RemoteTimeout,
		ClearAttempts: cfg.Cart.ClearAttempts,
		ClearBackoff:  cfg.Cart.ClearBackoff,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart manager", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"local_driver":  cfg.Cart.LocalDriver,
		"remote_driver": cfg.Cart.RemoteDriver,
		"auth_provider": cfg.Auth.Provider,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, b.Checks, registry, verifier, manager, b.Users, b.Orders),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "api server shutdown failed", err)
	}
	if err := manager.Close(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "cart mirrors not fully flushed", err)
	}
}
