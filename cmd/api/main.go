package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	delivery "rockfun/internal/adapter/delivery/http"
	handler "rockfun/internal/adapter/handler/http"
	"rockfun/internal/adapter/kyc"
	"rockfun/internal/adapter/registry"
	"rockfun/internal/adapter/rpc"
	"rockfun/internal/adapter/storage/memory"
	"rockfun/internal/application"
	"rockfun/internal/config"
	"rockfun/internal/logger"
)

func main() {
	// --- Configuration ---
	cfgPath := "configs"
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", cfgPath, err)
	}

	// --- Logger ---
	appLogger, err := logger.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("Failed to setup logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	appLogger.Info("Logger initialized", zap.Any("config", cfg.Logger))

	// --- Dependency Injection (Manual) ---
	appLogger.Info("Initializing dependencies...")

	networkRegistry, err := registry.NewNetworkRegistry(cfg.Networks, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to build network registry", zap.Error(err))
	}
	cacheRepo := memory.NewCacheRepository(cfg.Checker, appLogger)
	rpcChecker := rpc.NewChecker(cfg.Checker, appLogger)
	kycUpstream := kyc.NewUpstream(cfg.Kyc, appLogger)

	networkService := application.NewNetworkService(networkRegistry, cacheRepo, rpcChecker, appLogger, cfg.Checker)
	kycProxy := application.NewKycProxyService(networkRegistry, kycUpstream, appLogger)

	networkHandler := handler.NewNetworkHandler(networkService, appLogger)
	kycHandler := handler.NewKycHandler(kycProxy, appLogger)

	// --- HTTP Router & Server ---
	appLogger.Info("Setting up HTTP router...")
	r := router.New()
	delivery.RegisterRoutes(r, networkHandler, kycHandler, cfg.Metrics, appLogger)

	server := &fasthttp.Server{
		Handler:      delivery.Middleware(r.Handler, appLogger.Named("HTTP")),
		Name:         cfg.App.Name,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	serverAddr := ":" + cfg.Server.Port
	g.Go(func() error {
		appLogger.Info("Starting HTTP server", zap.String("address", serverAddr))
		return server.ListenAndServe(serverAddr)
	})

	g.Go(func() error {
		<-gCtx.Done()
		appLogger.Info("Shutting down HTTP server", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Fatal("Server stopped with error", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
