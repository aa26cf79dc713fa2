package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/eyetimeline/backend/internal/adapters/cache"
	"github.com/zatekoja/eyetimeline/backend/internal/application/services"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/eyetimeline/backend/pkg/errors"
)

func TestParseEye(t *testing.T) {
	eye, err := services.ParseEye("", entities.EyeRight)
	require.NoError(t, err)
	assert.Equal(t, entities.EyeRight, eye)

	eye, err = services.ParseEye("OS", entities.EyeRight)
	require.NoError(t, err)
	assert.Equal(t, entities.EyeLeft, eye)

	_, err = services.ParseEye("middle", entities.EyeRight)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDashboardService_Dashboard_CachesResult(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPatientRecordRepo)
	store := cache.NewMemoryAdapter()
	svc := services.NewDashboardService(repo, store, time.Minute, nil, nil)

	repo.On("GetByUID", mock.Anything, "P1").Return(sampleRecord("P1"), nil).Once()

	first, err := svc.Dashboard(ctx, "P1", entities.EyeRight)
	require.NoError(t, err)
	assert.Equal(t, "P1", first.PatientUID)
	assert.Equal(t, entities.EyeRight, first.Eye)
	require.Len(t, first.Notes, 2)
	assert.Equal(t, "2023-01-01", first.Notes[0].Date)

	exists, _ := store.Exists(ctx, services.DashboardCacheKey("P1", entities.EyeRight))
	assert.True(t, exists)

	second, err := svc.Dashboard(ctx, "P1", entities.EyeRight)
	require.NoError(t, err)
	assert.Equal(t, first.Notes, second.Notes)
	repo.AssertExpectations(t)
}

func TestDashboardService_Dashboard_WithoutCache(t *testing.T) {
	repo := new(MockPatientRecordRepo)
	svc := services.NewDashboardService(repo, nil, 0, nil, nil)
	repo.On("GetByUID", mock.Anything, "P1").Return(sampleRecord("P1"), nil).Twice()

	_, err := svc.Dashboard(context.Background(), "P1", entities.EyeLeft)
	require.NoError(t, err)
	_, err = svc.Dashboard(context.Background(), "P1", entities.EyeLeft)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDashboardService_Dashboard_Errors(t *testing.T) {
	repo := new(MockPatientRecordRepo)
	svc := services.NewDashboardService(repo, nil, 0, nil, nil)

	_, err := svc.Dashboard(context.Background(), "P1", entities.EyeSelector("xx"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	repo.On("GetByUID", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("patient record not found"))
	_, err = svc.Dashboard(context.Background(), "missing", entities.EyeRight)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDashboardService_Invalidate(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryAdapter()
	svc := services.NewDashboardService(new(MockPatientRecordRepo), store, time.Minute, nil, nil)

	for _, eye := range services.AllEyes {
		require.NoError(t, store.Set(ctx, services.DashboardCacheKey("P1", eye), []byte(`{}`), 0))
	}
	require.NoError(t, store.Set(ctx, services.DashboardCacheKey("P2", entities.EyeRight), []byte(`{}`), 0))

	require.NoError(t, svc.Invalidate(ctx, "P1"))
	assert.Equal(t, 1, store.Len())
}

func TestDashboardService_Build_ResetsPalette(t *testing.T) {
	svc := services.NewDashboardService(new(MockPatientRecordRepo), nil, 0, []string{"#111111", "#222222"}, nil)
	palette := svc.NewPalette()
	palette.ColorFor("Left over from another patient")

	record := sampleRecord("P1")
	svc.Build(context.Background(), record, entities.EyeRight, palette)

	_, kept := palette.Assigned()["Left over from another patient"]
	assert.False(t, kept)
}

func TestDashboardService_Views(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPatientRecordRepo)
	svc := services.NewDashboardService(repo, nil, 0, nil, nil)
	repo.On("GetByUID", mock.Anything, "P1").Return(sampleRecord("P1"), nil)
	repo.On("GetByUID", mock.Anything, "P9").Return(nil, errors.New("boom"))

	intervals, err := svc.Intervals(ctx, "P1", "no-such-category", entities.EyeRight)
	require.NoError(t, err)
	assert.Empty(t, intervals)
	assert.NotNil(t, intervals)

	meds, err := svc.Medications(ctx, "P1", entities.EyeRight)
	require.NoError(t, err)
	assert.Empty(t, meds)

	procs, err := svc.Procedures(ctx, "P1", entities.EyeRight)
	require.NoError(t, err)
	assert.Empty(t, procs)

	series, err := svc.Series(ctx, "P1", entities.EyeRight)
	require.NoError(t, err)
	assert.Empty(t, series.Acuity)

	_, err = svc.Series(ctx, "P9", entities.EyeRight)
	assert.Error(t, err)
}

func TestDashboardService_SeriesColorsMatchDashboard(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPatientRecordRepo)
	svc := services.NewDashboardService(repo, nil, 0, nil, nil)

	var record entities.PatientRecord
	require.NoError(t, json.Unmarshal([]byte(`{"uid": "P1", "visits": [
		{"visit_no": 2, "date": "2023-06-01", "procedures": {"lasers": {"re": [{"name": "PRP"}]}}},
		{"visit_no": 1, "date": "2023-01-01", "procedures": {"injections": {"re": [{"name": "Eylea"}]}}}
	]}`), &record))
	repo.On("GetByUID", mock.Anything, "P1").Return(&record, nil)

	series, err := svc.Series(ctx, "P1", entities.EyeRight)
	require.NoError(t, err)
	dashboard, err := svc.Dashboard(ctx, "P1", entities.EyeRight)
	require.NoError(t, err)

	colors := func(events []entities.ProcedureEvent) map[string]string {
		out := make(map[string]string, len(events))
		for _, e := range events {
			out[e.Name] = e.Color
		}
		return out
	}
	require.Len(t, series.ProcedureEvents, 2)
	assert.Equal(t, "Eylea", series.ProcedureEvents[0].Name)
	assert.Equal(t, colors(dashboard.Series.ProcedureEvents), colors(series.ProcedureEvents))
	assert.NotEqual(t, series.ProcedureEvents[0].Color, series.ProcedureEvents[1].Color)
}

func TestDashboardService_StoreReportsWrites(t *testing.T) {
	ctx := context.Background()
	dashboard := &entities.Dashboard{PatientUID: "P1", Eye: entities.EyeRight}

	cached := services.NewDashboardService(new(MockPatientRecordRepo), cache.NewMemoryAdapter(), time.Minute, nil, nil)
	assert.True(t, cached.Store(ctx, dashboard))
	assert.False(t, cached.Store(ctx, nil))

	noTTL := services.NewDashboardService(new(MockPatientRecordRepo), cache.NewMemoryAdapter(), 0, nil, nil)
	assert.False(t, noTTL.Store(ctx, dashboard))

	noCache := services.NewDashboardService(new(MockPatientRecordRepo), nil, time.Minute, nil, nil)
	assert.False(t, noCache.Store(ctx, dashboard))
}
