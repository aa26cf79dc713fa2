package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/providers"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/observability"
)

const recordCacheFamily = "record"

// RecordCacheKey is the cache key holding one patient's raw record
func RecordCacheKey(uid string) string {
	return fmt.Sprintf("record:%s", uid)
}

// CachedPatientRecordAdapter wraps a PatientRecordRepository with read-through caching
// of full records. Lists and counts are always served by the underlying store.
type CachedPatientRecordAdapter struct {
	adapter repositories.PatientRecordRepository
	cache   providers.CacheProvider
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewCachedPatientRecordAdapter creates a new cached patient record adapter
func NewCachedPatientRecordAdapter(
	adapter repositories.PatientRecordRepository,
	cache providers.CacheProvider,
	ttl time.Duration,
	metrics *observability.Metrics,
) repositories.PatientRecordRepository {
	return &CachedPatientRecordAdapter{
		adapter: adapter,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
	}
}

// GetByUID retrieves a record, consulting the cache first
func (a *CachedPatientRecordAdapter) GetByUID(ctx context.Context, uid string) (*entities.PatientRecord, error) {
	if record, ok := a.fromCache(ctx, uid); ok {
		return record, nil
	}

	record, err := a.adapter.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	a.store(ctx, record)
	return record, nil
}

// GetByUIDs serves cached records and loads only the misses from the store.
// Results keep the order of uids; unknown UIDs are omitted.
func (a *CachedPatientRecordAdapter) GetByUIDs(ctx context.Context, uids []string) ([]*entities.PatientRecord, error) {
	if len(uids) == 0 {
		return []*entities.PatientRecord{}, nil
	}

	found := make(map[string]*entities.PatientRecord, len(uids))
	missing := make([]string, 0)
	for _, uid := range uids {
		if record, ok := a.fromCache(ctx, uid); ok {
			found[uid] = record
			continue
		}
		missing = append(missing, uid)
	}

	if len(missing) > 0 {
		loaded, err := a.adapter.GetByUIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, record := range loaded {
			found[record.UID] = record
			a.store(ctx, record)
		}
	}

	records := make([]*entities.PatientRecord, 0, len(found))
	for _, uid := range uids {
		if record, ok := found[uid]; ok {
			records = append(records, record)
		}
	}
	return records, nil
}

// List delegates to the underlying store
func (a *CachedPatientRecordAdapter) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.PatientSummary, error) {
	return a.adapter.List(ctx, filter)
}

// Count delegates to the underlying store
func (a *CachedPatientRecordAdapter) Count(ctx context.Context) (int, error) {
	return a.adapter.Count(ctx)
}

// Upsert writes through and drops the cached copy
func (a *CachedPatientRecordAdapter) Upsert(ctx context.Context, record *entities.PatientRecord) error {
	if err := a.adapter.Upsert(ctx, record); err != nil {
		return err
	}
	a.evict(ctx, record.UID)
	return nil
}

// Delete removes the record and its cached copy
func (a *CachedPatientRecordAdapter) Delete(ctx context.Context, uid string) error {
	if err := a.adapter.Delete(ctx, uid); err != nil {
		return err
	}
	a.evict(ctx, uid)
	return nil
}

func (a *CachedPatientRecordAdapter) fromCache(ctx context.Context, uid string) (*entities.PatientRecord, bool) {
	data, err := a.cache.Get(ctx, RecordCacheKey(uid))
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			log.Ctx(ctx).Warn().Err(err).Str("uid", uid).Msg("record cache read failed")
		}
		observability.RecordCacheMiss(ctx, a.metrics, recordCacheFamily)
		return nil, false
	}

	var record entities.PatientRecord
	if err := json.Unmarshal(data, &record); err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("failed to unmarshal cached record")
		observability.RecordCacheMiss(ctx, a.metrics, recordCacheFamily)
		return nil, false
	}
	observability.RecordCacheHit(ctx, a.metrics, recordCacheFamily)
	return &record, true
}

func (a *CachedPatientRecordAdapter) store(ctx context.Context, record *entities.PatientRecord) {
	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, RecordCacheKey(record.UID), data, int(a.ttl.Seconds())); err != nil {
		log.Warn().Err(err).Str("uid", record.UID).Msg("failed to cache record")
	}
}

func (a *CachedPatientRecordAdapter) evict(ctx context.Context, uid string) {
	if err := a.cache.Delete(ctx, RecordCacheKey(uid)); err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("failed to evict cached record")
	}
}
