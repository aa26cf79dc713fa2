package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/observability"
	"github.com/zatekoja/eyetimeline/backend/internal/procedures"
)

// AllEyes is every selector a dashboard can be precomputed for
var AllEyes = []entities.EyeSelector{entities.EyeRight, entities.EyeLeft, entities.EyeBoth}

// PrecomputeSummary reports the outcome of one precompute run
type PrecomputeSummary struct {
	RunID      string        `json:"run_id"`
	Patients   int           `json:"patients"`
	Dashboards int           `json:"dashboards"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
}

// DashboardPrecomputeService warms the dashboard cache for every stored patient
type DashboardPrecomputeService struct {
	records     repositories.PatientRecordRepository
	dashboards  *DashboardService
	workerCount int
	pageSize    int
	eyes        []entities.EyeSelector
	metrics     *observability.Metrics
}

// NewDashboardPrecomputeService creates a new precompute service
func NewDashboardPrecomputeService(
	records repositories.PatientRecordRepository,
	dashboards *DashboardService,
	workers int,
	pageSize int,
	metrics *observability.Metrics,
) *DashboardPrecomputeService {
	if workers <= 0 {
		workers = 1
	}
	if pageSize <= 0 {
		pageSize = 200
	}
	return &DashboardPrecomputeService{
		records:     records,
		dashboards:  dashboards,
		workerCount: workers,
		pageSize:    pageSize,
		eyes:        AllEyes,
		metrics:     metrics,
	}
}

// WithEyes restricts the run to the given selectors
func (s *DashboardPrecomputeService) WithEyes(eyes ...entities.EyeSelector) *DashboardPrecomputeService {
	if len(eyes) > 0 {
		s.eyes = eyes
	}
	return s
}

// PrecomputeAll pages through every stored record and caches its dashboards.
// Each worker owns one palette, reset before every patient.
func (s *DashboardPrecomputeService) PrecomputeAll(ctx context.Context) (*PrecomputeSummary, error) {
	runID := uuid.New().String()
	logger := log.With().Str("run_id", runID).Logger()
	start := time.Now()
	logger.Info().Int("workers", s.workerCount).Msg("starting dashboard precompute")

	var patients, dashboards, failed int64
	uidChan := make(chan string, s.pageSize)
	var wg sync.WaitGroup

	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			palette := s.dashboards.NewPalette()
			for uid := range uidChan {
				n, err := s.precomputeOne(ctx, uid, palette)
				atomic.AddInt64(&patients, 1)
				atomic.AddInt64(&dashboards, int64(n))
				if err != nil {
					atomic.AddInt64(&failed, 1)
					observability.RecordPrecompute(ctx, s.metrics, "failed")
					logger.Warn().Err(err).Str("uid", uid).Msg("failed to precompute dashboards")
					continue
				}
				observability.RecordPrecompute(ctx, s.metrics, "ok")
			}
		}()
	}

	produceErr := s.produce(ctx, uidChan)
	close(uidChan)
	wg.Wait()
	if produceErr != nil {
		return nil, produceErr
	}

	summary := &PrecomputeSummary{
		RunID:      runID,
		Patients:   int(patients),
		Dashboards: int(dashboards),
		Failed:     int(failed),
		Duration:   time.Since(start),
	}
	logger.Info().
		Int("patients", summary.Patients).
		Int("dashboards", summary.Dashboards).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("dashboard precompute completed")
	return summary, nil
}

func (s *DashboardPrecomputeService) produce(ctx context.Context, uidChan chan<- string) error {
	for offset := 0; ; offset += s.pageSize {
		page, err := s.records.List(ctx, repositories.PatientFilter{Limit: s.pageSize, Offset: offset})
		if err != nil {
			return fmt.Errorf("failed to list patients at offset %d: %w", offset, err)
		}
		for _, p := range page {
			select {
			case uidChan <- p.UID:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if len(page) < s.pageSize {
			return nil
		}
	}
}

func (s *DashboardPrecomputeService) precomputeOne(ctx context.Context, uid string, palette *procedures.Palette) (int, error) {
	record, err := s.records.GetByUID(ctx, uid)
	if err != nil {
		return 0, err
	}
	return s.PrecomputeRecord(ctx, record, palette), nil
}

// PrecomputeRecord builds and caches the dashboards of one already-loaded record,
// returning how many were written to the cache
func (s *DashboardPrecomputeService) PrecomputeRecord(ctx context.Context, record *entities.PatientRecord, palette *procedures.Palette) int {
	stored := 0
	for _, eye := range s.eyes {
		if s.dashboards.Store(ctx, s.dashboards.Build(ctx, record, eye, palette)) {
			stored++
		}
	}
	return stored
}
