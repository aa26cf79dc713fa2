//go:build integration

package database_test

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/eyetimeline/backend/internal/adapters/database"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/eyetimeline/backend/pkg/config"
	apperrors "github.com/zatekoja/eyetimeline/backend/pkg/errors"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func newTestPostgresClient(t *testing.T) *postgres.Client {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "eyetimeline_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}

	client, err := postgres.NewClient(cfg)
	require.NoError(t, err, "Failed to create postgres client")
	return client
}

func TestPatientRecordAdapter_RoundTripIntegration(t *testing.T) {
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("Skipping integration test: TEST_DB_HOST not set")
	}

	client := newTestPostgresClient(t)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.EnsureSchema(ctx))
	_, err := client.DB().ExecContext(ctx, `DELETE FROM patient_records WHERE uid LIKE 'it-%'`)
	require.NoError(t, err)

	var record entities.PatientRecord
	require.NoError(t, json.Unmarshal([]byte(`{
		"uid": "it-001",
		"mr_no": "MR-IT-1",
		"visit_count": 2,
		"visits": [
			{"visit_no": 1, "date": "2024-01-10", "investigations": {"iop": ["21", "19", ""]}},
			{"visit_no": 2, "date": "10/03/2024", "visual_acuity": {"distance": {"re": "6/9"}}}
		]
	}`), &record))

	adapter := database.NewPatientRecordAdapter(client.DBX(), nil)
	require.NoError(t, adapter.Upsert(ctx, &record))

	got, err := adapter.GetByUID(ctx, "it-001")
	require.NoError(t, err)
	assert.Equal(t, "MR-IT-1", got.MRNo)
	require.Len(t, got.Visits, 2)
	iop, ok := got.Visits[0].Investigations.IOP.Get(entities.EyeRight)
	assert.True(t, ok)
	assert.Equal(t, "21", iop)

	list, err := adapter.List(ctx, repositories.PatientFilter{MRNo: "MR-IT-1"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, adapter.Delete(ctx, "it-001"))
	_, err = adapter.GetByUID(ctx, "it-001")
	assert.True(t, apperrors.IsNotFound(err))
}
