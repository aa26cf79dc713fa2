//go:build integration

package services_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/eyetimeline/backend/internal/adapters/cache"
	"github.com/zatekoja/eyetimeline/backend/internal/adapters/events"
	"github.com/zatekoja/eyetimeline/backend/internal/application/services"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/eyetimeline/backend/pkg/config"
)

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	port, _ := strconv.Atoi(os.Getenv("TEST_REDIS_PORT"))
	if port == 0 {
		port = 6379
	}
	client, err := redis.NewClient(&config.RedisConfig{
		Host:     os.Getenv("TEST_REDIS_HOST"),
		Port:     port,
		Password: os.Getenv("TEST_REDIS_PASSWORD"),
	})
	require.NoError(t, err, "Failed to create redis client")
	return client
}

func TestUpsertInvalidatesCachedDashboardsIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	cacheProvider := cache.NewRedisAdapter(redisClient)
	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	invalidation := services.NewCacheInvalidationService(cacheProvider, eventBus)
	require.NoError(t, invalidation.Start())
	defer invalidation.Stop()
	time.Sleep(50 * time.Millisecond)

	repo := new(MockPatientRecordRepo)
	record := sampleRecord("it-redis-1")
	repo.On("GetByUID", mock.Anything, "it-redis-1").Return(record, nil)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	ctx := context.Background()
	dashboards := services.NewDashboardService(repo, cacheProvider, time.Minute, nil, nil)
	_, err := dashboards.Dashboard(ctx, "it-redis-1", entities.EyeRight)
	require.NoError(t, err)

	key := services.DashboardCacheKey("it-redis-1", entities.EyeRight)
	exists, err := cacheProvider.Exists(ctx, key)
	require.NoError(t, err)
	require.True(t, exists)

	patients := services.NewPatientService(repo, eventBus, nil)
	require.NoError(t, patients.Upsert(ctx, record))

	assert.Eventually(t, func() bool {
		exists, err := cacheProvider.Exists(ctx, key)
		return err == nil && !exists
	}, 3*time.Second, 50*time.Millisecond)
}
