package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/evyataryagoni/iptracker/internal/config"
	"github.com/evyataryagoni/iptracker/internal/controller"
	"github.com/evyataryagoni/iptracker/internal/geolookup"
	"github.com/evyataryagoni/iptracker/internal/handler"
	"github.com/evyataryagoni/iptracker/internal/limiter"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/mapview"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/router"
	"github.com/evyataryagoni/iptracker/internal/screen"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appConfig := config.Load()

	// Initialize components
	appLogger := setupLogger(appConfig)
	metricsCollector := setupMetrics(appLogger)

	rateLimiter := setupRateLimiter(appConfig, appLogger)
	defer rateLimiter.Close()

	client := geolookup.NewClient(geolookup.Config{BaseURL: appConfig.ProviderURL}, metricsCollector, appLogger)

	// Build the screen: controller -> screen -> (panel, map)
	mapView := mapview.New(mapview.Options{
		Tiles: mapview.TileLayer{
			URLTemplate: appConfig.TileURL,
			Attribution: appConfig.TileAttribution,
		},
		Icon: mapview.DefaultIcon(),
	}, metricsCollector, appLogger)
	appScreen := screen.New(mapView)

	lookupController := controller.New(client, metricsCollector, appLogger)
	lookupController.Subscribe(appScreen)
	lookupController.Activate(ctx)

	screenHandler, err := handler.NewScreenHandler(lookupController, appScreen, mapView, client, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("Failed to initialize handler")
	}
	appRouter := router.SetupRouter(screenHandler, rateLimiter, metricsCollector, prometheus.DefaultGatherer, appLogger)

	startServer(ctx, appConfig, appRouter, appLogger)
}

// setupLogger initializes the structured logger
func setupLogger(appConfig *config.Config) *logger.Logger {
	appLogger := logger.New(logger.Config{
		Level:  appConfig.LogLevel,
		Pretty: appConfig.LogPretty,
	})

	appLogger.Info().Msg("Starting IP Tracker...")
	appLogger.Info().
		Str("port", appConfig.Port).
		Str("provider_url", appConfig.ProviderURL).
		Str("rate_limiter_type", appConfig.RateLimitType).
		Int("rate_limit", appConfig.RateLimit).
		Dur("rate_limit_window", appConfig.RateLimitWindow).
		Msg("Configuration loaded")

	return appLogger
}

// setupRateLimiter initializes the lookup rate limiter.
// Supports in-memory and Redis-based limiting
func setupRateLimiter(appConfig *config.Config, log *logger.Logger) limiter.Limiter {
	rateLimiter, err := limiter.New(limiter.Config{
		Type:          appConfig.RateLimitType,
		Limit:         appConfig.RateLimit,
		Window:        appConfig.RateLimitWindow,
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize rate limiter")
	}

	log.Info().
		Str("type", appConfig.RateLimitType).
		Int("limit", appConfig.RateLimit).
		Dur("window", appConfig.RateLimitWindow).
		Msg("Rate limiter initialized")

	return rateLimiter
}

// setupMetrics initializes the Prometheus metrics collector
func setupMetrics(log *logger.Logger) *metrics.Metrics {
	metricsCollector := metrics.New()
	log.Info().Msg("Metrics initialized")
	return metricsCollector
}

// startServer serves until ctx is cancelled, then drains connections
func startServer(ctx context.Context, appConfig *config.Config, appRouter http.Handler, log *logger.Logger) {
	server := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           appRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	log.Info().
		Str("page", "http://localhost:"+appConfig.Port+"/").
		Str("state", "http://localhost:"+appConfig.Port+"/v1/state").
		Str("health_check", "http://localhost:"+appConfig.Port+"/health").
		Str("metrics", "http://localhost:"+appConfig.Port+"/metrics").
		Msg("Server is running")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
