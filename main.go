package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dalfonso89/marketplace-currency-service/internal/api"
	"github.com/dalfonso89/marketplace-currency-service/internal/config"
	"github.com/dalfonso89/marketplace-currency-service/internal/logger"
	"github.com/dalfonso89/marketplace-currency-service/internal/platform"
	"github.com/dalfonso89/marketplace-currency-service/internal/pricing"
	"github.com/dalfonso89/marketplace-currency-service/internal/ratelimit"
	"github.com/dalfonso89/marketplace-currency-service/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	shutdownCtx, stop := platform.NewShutdownContext(context.Background())
	defer stop()

	// Defaults are served from the first request; the initial fetch runs in the background
	rateCache := service.NewRateCache(cfg, service.NewRateSourceFromConfig(cfg, logger), logger)
	go rateCache.InitializeRates(shutdownCtx)
	go service.NewRefresher(rateCache, cfg.RatesRefreshInterval, logger).Run(shutdownCtx)

	rateLimiter := ratelimit.NewLimiter(cfg, logger)

	handlers := api.NewHandlers(api.HandlerConfig{
		Configuration: cfg,
		Logger:        logger,
		RateCache:     rateCache,
		Pricing:       pricing.NewCalculator(rateCache),
		RateLimiter:   rateLimiter,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.WithField("sources", cfg.RatesSourceURLs).Info("Starting currency service on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-shutdownCtx.Done()
	logger.Info("Shutting down server...")

	rateLimiter.Stop()

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
