package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_TypesenseConfig(t *testing.T) {
	t.Setenv("TYPESENSE_URL", "http://test-typesense:8108")
	t.Setenv("TYPESENSE_API_KEY", "test-key")
	t.Setenv("TYPESENSE_COLLECTION", "patients_v2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://test-typesense:8108", cfg.Typesense.URL)
	assert.Equal(t, "test-key", cfg.Typesense.APIKey)
	assert.Equal(t, "patients_v2", cfg.Typesense.Collection)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TYPESENSE_URL", "")
	t.Setenv("CACHE_DASHBOARD_TTL", "")
	t.Setenv("DASHBOARD_PALETTE", "")
	t.Setenv("PRECOMPUTE_CONCURRENCY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8108", cfg.Typesense.URL)
	assert.Equal(t, 30*time.Minute, cfg.Cache.DashboardTTL)
	assert.Equal(t, "re", cfg.Dashboard.DefaultEye)
	assert.Nil(t, cfg.Dashboard.PaletteColors)
	assert.Equal(t, 4, cfg.Precompute.Concurrency)
}

func TestLoad_DashboardOverrides(t *testing.T) {
	t.Setenv("DASHBOARD_PALETTE", "#111, #222,,#333")
	t.Setenv("CACHE_RECORD_TTL", "90s")
	t.Setenv("CACHE_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"#111", "#222", "#333"}, cfg.Dashboard.PaletteColors)
	assert.Equal(t, 90*time.Second, cfg.Cache.RecordTTL)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("CACHE_RECORD_TTL", "ten minutes")
	t.Setenv("SERVER_PORT", "http")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.Cache.RecordTTL)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_RejectsZeroConcurrency(t *testing.T) {
	t.Setenv("PRECOMPUTE_CONCURRENCY", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "eyes", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=eyes sslmode=disable", db.DatabaseDSN())
}
