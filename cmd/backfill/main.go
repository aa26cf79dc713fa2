package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eyetimeline/backend/internal/adapters/cache"
	"github.com/zatekoja/eyetimeline/backend/internal/adapters/database"
	"github.com/zatekoja/eyetimeline/backend/internal/application/services"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/observability"
	"github.com/zatekoja/eyetimeline/backend/pkg/config"
)

func main() {
	var workers int
	var patientUID string
	var eyesFlag string

	flag.IntVar(&workers, "workers", 0, "number of concurrent workers (default PRECOMPUTE_CONCURRENCY)")
	flag.StringVar(&patientUID, "patient", "", "single patient UID to precompute")
	flag.StringVar(&eyesFlag, "eyes", "re,le,be", "comma-separated eye selectors to precompute")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("eyetimeline-backfill", cfg.Log.Environment, cfg.Log.Level)

	if workers <= 0 {
		workers = cfg.Precompute.Concurrency
	}
	eyes, err := parseEyes(eyesFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -eyes")
	}
	if cfg.Cache.DashboardTTL <= 0 {
		log.Fatal().Msg("CACHE_DASHBOARD_TTL must be positive to precompute dashboards")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisClient.Close()

	cacheProvider := cache.NewRedisAdapter(redisClient)
	records := database.NewPatientRecordAdapter(pgClient.DBX(), nil)
	dashboards := services.NewDashboardService(records, cacheProvider, cfg.Cache.DashboardTTL, cfg.Dashboard.PaletteColors, nil)
	svc := services.NewDashboardPrecomputeService(records, dashboards, workers, cfg.Precompute.PageSize, nil).
		WithEyes(eyes...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if patientUID != "" {
		record, err := records.GetByUID(ctx, patientUID)
		if err != nil {
			log.Fatal().Err(err).Str("uid", patientUID).Msg("failed to load patient")
		}
		n := svc.PrecomputeRecord(ctx, record, dashboards.NewPalette())
		log.Info().Str("uid", patientUID).Int("dashboards", n).Msg("precomputed patient dashboards")
		return
	}

	summary, err := svc.PrecomputeAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("precompute failed")
	}
	if summary.Failed > 0 {
		os.Exit(2)
	}
}

func parseEyes(raw string) ([]entities.EyeSelector, error) {
	var eyes []entities.EyeSelector
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eye, ok := entities.ParseEyeSelector(part)
		if !ok {
			return nil, fmt.Errorf("unknown eye %q", part)
		}
		eyes = append(eyes, eye)
	}
	if len(eyes) == 0 {
		return nil, fmt.Errorf("no eyes given")
	}
	return eyes, nil
}
