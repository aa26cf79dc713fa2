package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/eyetimeline/backend/internal/adapters/cache"
	"github.com/zatekoja/eyetimeline/backend/internal/adapters/database"
	"github.com/zatekoja/eyetimeline/backend/internal/application/services"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/providers"
)

func seedPatientCache(t *testing.T, store *cache.MemoryAdapter, uid string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, database.RecordCacheKey(uid), []byte(`{}`), 0))
	for _, eye := range services.AllEyes {
		require.NoError(t, store.Set(ctx, services.DashboardCacheKey(uid, eye), []byte(`{}`), 0))
	}
}

func TestCacheInvalidationService_HandlesRecordEvents(t *testing.T) {
	store := cache.NewMemoryAdapter()
	bus := newFakeEventBus()
	seedPatientCache(t, store, "P1")
	seedPatientCache(t, store, "P2")

	svc := services.NewCacheInvalidationService(store, bus)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelRecordUpdates, &entities.RecordEvent{
		ID: "e1", PatientUID: "P1", EventType: entities.RecordEventUpserted,
	}))

	assert.Eventually(t, func() bool { return store.Len() == 4 }, time.Second, 10*time.Millisecond)
	ok, _ := store.Exists(context.Background(), database.RecordCacheKey("P2"))
	assert.True(t, ok)
}

func TestCacheInvalidationService_InvalidateAll(t *testing.T) {
	store := cache.NewMemoryAdapter()
	seedPatientCache(t, store, "P1")
	require.NoError(t, store.Set(context.Background(), "unrelated", []byte("x"), 0))

	svc := services.NewCacheInvalidationService(store, newFakeEventBus())
	require.NoError(t, svc.InvalidateAll(context.Background()))
	assert.Equal(t, 1, store.Len())
	svc.Stop()
}
