package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/providers"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/observability"
	"github.com/zatekoja/eyetimeline/backend/internal/procedures"
	"github.com/zatekoja/eyetimeline/backend/internal/timeline"
	apperrors "github.com/zatekoja/eyetimeline/backend/pkg/errors"
)

const dashboardCacheFamily = "dashboard"

// DashboardCacheKey is the cache key for one patient's dashboard for one eye
func DashboardCacheKey(uid string, eye entities.EyeSelector) string {
	return fmt.Sprintf("dashboard:%s:%s", uid, eye)
}

// DashboardCachePattern matches every cached dashboard of a patient
func DashboardCachePattern(uid string) string {
	return fmt.Sprintf("dashboard:%s:*", uid)
}

// ParseEye resolves an eye query parameter, using def when raw is empty
func ParseEye(raw string, def entities.EyeSelector) (entities.EyeSelector, error) {
	if raw == "" {
		return def, nil
	}
	eye, ok := entities.ParseEyeSelector(raw)
	if !ok {
		return "", apperrors.NewValidationError(fmt.Sprintf("invalid eye %q: expected re, le or be", raw))
	}
	return eye, nil
}

// DashboardService derives timeline views from stored patient records
type DashboardService struct {
	records repositories.PatientRecordRepository
	cache   providers.CacheProvider
	ttl     time.Duration
	colors  []string
	metrics *observability.Metrics
}

// NewDashboardService creates a new dashboard service. cache and metrics may be nil;
// a zero ttl disables dashboard caching.
func NewDashboardService(
	records repositories.PatientRecordRepository,
	cache providers.CacheProvider,
	ttl time.Duration,
	colors []string,
	metrics *observability.Metrics,
) *DashboardService {
	return &DashboardService{
		records: records,
		cache:   cache,
		ttl:     ttl,
		colors:  colors,
		metrics: metrics,
	}
}

// NewPalette returns a fresh palette using the configured colors
func (s *DashboardService) NewPalette() *procedures.Palette {
	return procedures.NewPalette(s.colors...)
}

// Dashboard returns the full derived view-model for a patient and eye, served from
// cache when possible
func (s *DashboardService) Dashboard(ctx context.Context, uid string, eye entities.EyeSelector) (*entities.Dashboard, error) {
	ctx, span := observability.StartSpan(ctx, "DashboardService.Dashboard")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("patient.uid", uid),
		attribute.String("eye", string(eye)),
	)

	if !eye.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid eye %q", eye))
	}

	if cached, ok := s.cached(ctx, uid, eye); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	record, err := s.records.GetByUID(ctx, uid)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	dashboard := s.Build(ctx, record, eye, s.NewPalette())
	s.Store(ctx, dashboard)
	return dashboard, nil
}

// Build derives a dashboard for record with the given palette. The palette is
// reset first so colors are assigned per patient.
func (s *DashboardService) Build(ctx context.Context, record *entities.PatientRecord, eye entities.EyeSelector, palette *procedures.Palette) *entities.Dashboard {
	if palette == nil {
		palette = s.NewPalette()
	}
	palette.Reset()

	start := time.Now()
	dashboard := timeline.BuildDashboard(record, eye, palette)
	observability.RecordDashboardBuild(ctx, s.metrics, string(eye), time.Since(start))
	return &dashboard
}

// Store caches a built dashboard and reports whether it was written. Failures are
// logged; nothing is written when caching is disabled.
func (s *DashboardService) Store(ctx context.Context, dashboard *entities.Dashboard) bool {
	if s.cache == nil || s.ttl <= 0 || dashboard == nil {
		return false
	}
	data, err := json.Marshal(dashboard)
	if err != nil {
		log.Warn().Err(err).Str("uid", dashboard.PatientUID).Msg("failed to encode dashboard")
		return false
	}
	key := DashboardCacheKey(dashboard.PatientUID, dashboard.Eye)
	if err := s.cache.Set(ctx, key, data, int(s.ttl.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to cache dashboard")
		return false
	}
	return true
}

// Invalidate drops every cached dashboard for a patient
func (s *DashboardService) Invalidate(ctx context.Context, uid string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.DeletePattern(ctx, DashboardCachePattern(uid)); err != nil {
		return apperrors.NewExternalError("failed to invalidate dashboards", err)
	}
	return nil
}

// Series returns the acuity, pressure and thickness series for a patient
func (s *DashboardService) Series(ctx context.Context, uid string, eye entities.EyeSelector) (*entities.Series, error) {
	record, err := s.records.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	sorted := &entities.PatientRecord{UID: record.UID, Visits: timeline.SortVisits(record.Visits)}
	series := timeline.ExtractSeries(sorted, eye, s.NewPalette())
	series.SortByDate()
	return &series, nil
}

// Intervals returns the merged intervals of one observation category or the
// diagnosis track. Unknown categories yield an empty list.
func (s *DashboardService) Intervals(ctx context.Context, uid, category string, eye entities.EyeSelector) ([]entities.Interval, error) {
	record, err := s.records.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return timeline.BuildIntervals(record, category, eye), nil
}

// Medications returns the drug spans with dosage for a patient
func (s *DashboardService) Medications(ctx context.Context, uid string, eye entities.EyeSelector) ([]entities.MedicationInterval, error) {
	record, err := s.records.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return timeline.BuildMedicationIntervals(record, eye), nil
}

// Procedures returns the deduplicated procedure summary in chronological order
func (s *DashboardService) Procedures(ctx context.Context, uid string, eye entities.EyeSelector) ([]entities.ProcedureSummary, error) {
	record, err := s.records.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	sorted := &entities.PatientRecord{UID: record.UID, Visits: timeline.SortVisits(record.Visits)}
	return procedures.Extract(sorted, eye), nil
}

func (s *DashboardService) cached(ctx context.Context, uid string, eye entities.EyeSelector) (*entities.Dashboard, bool) {
	if s.cache == nil || s.ttl <= 0 {
		return nil, false
	}
	data, err := s.cache.Get(ctx, DashboardCacheKey(uid, eye))
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			log.Warn().Err(err).Str("uid", uid).Msg("dashboard cache read failed")
		}
		observability.RecordCacheMiss(ctx, s.metrics, dashboardCacheFamily)
		return nil, false
	}

	var dashboard entities.Dashboard
	if err := json.Unmarshal(data, &dashboard); err != nil {
		observability.RecordCacheMiss(ctx, s.metrics, dashboardCacheFamily)
		return nil, false
	}
	observability.RecordCacheHit(ctx, s.metrics, dashboardCacheFamily)
	return &dashboard, true
}
