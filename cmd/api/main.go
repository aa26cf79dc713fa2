package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eyetimeline/backend/internal/adapters/cache"
	"github.com/zatekoja/eyetimeline/backend/internal/adapters/database"
	"github.com/zatekoja/eyetimeline/backend/internal/adapters/events"
	"github.com/zatekoja/eyetimeline/backend/internal/adapters/search"
	"github.com/zatekoja/eyetimeline/backend/internal/api/handlers"
	"github.com/zatekoja/eyetimeline/backend/internal/api/routes"
	"github.com/zatekoja/eyetimeline/backend/internal/application/services"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/providers"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/observability"
	"github.com/zatekoja/eyetimeline/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Log.Environment, cfg.Log.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			observability.EnableOTelBridge(cfg.OTEL.ServiceName)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	if err := pgClient.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply database schema")
	}

	// Redis is optional; without it caching and invalidation stay in-process.
	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, using in-process cache")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	switch {
	case redisClient != nil:
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	case cfg.Cache.Enabled:
		cacheProvider = cache.NewMemoryAdapter()
		eventBus = events.NewLocalEventBus()
	}

	var records repositories.PatientRecordRepository = database.NewPatientRecordAdapter(pgClient.DBX(), metrics)
	if cacheProvider != nil {
		records = database.NewCachedPatientRecordAdapter(records, cacheProvider, cfg.Cache.RecordTTL, metrics)
	}

	var typesenseClient *typesense.Client
	var indexService *services.PatientIndexService
	if cfg.Typesense.URL != "" {
		typesenseClient, err = typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable, patient search disabled")
			typesenseClient = nil
		} else {
			adapter := search.NewTypesenseAdapter(typesenseClient)
			if err := adapter.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to init Typesense schema")
			}
			indexService = services.NewPatientIndexService(records, adapter, cfg.Precompute.PageSize)
		}
	}

	defaultEye, ok := entities.ParseEyeSelector(cfg.Dashboard.DefaultEye)
	if !ok {
		log.Warn().Str("eye", cfg.Dashboard.DefaultEye).Msg("invalid default eye, using re")
		defaultEye = entities.EyeRight
	}

	dashboardService := services.NewDashboardService(records, cacheProvider, cfg.Cache.DashboardTTL, cfg.Dashboard.PaletteColors, metrics)
	patientService := services.NewPatientService(records, eventBus, indexService)

	var invalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		invalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := invalidationService.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start cache invalidation service")
			invalidationService = nil
		}
	}

	checks := map[string]handlers.HealthChecker{"postgres": pgClient}
	if redisClient != nil {
		checks["redis"] = redisClient
	}
	if typesenseClient != nil {
		checks["typesense"] = typesenseClient
	}

	router := routes.NewRouter(
		handlers.NewHealthHandler(checks),
		handlers.NewPatientHandler(patientService),
		handlers.NewDashboardHandler(dashboardService, records, defaultEye, cfg.Precompute.MaxBatch),
		routes.Options{
			Records:        records,
			MaxBatch:       cfg.Precompute.MaxBatch,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Metrics:        metrics,
		},
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if invalidationService != nil {
		invalidationService.Stop()
	}
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
