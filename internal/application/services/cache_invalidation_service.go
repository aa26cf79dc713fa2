package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eyetimeline/backend/internal/adapters/database"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/providers"
)

// CacheInvalidationService drops cached records and dashboards when a record changes.
// Events arrive over the bus so every API instance clears its view of the patient.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for record events
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelRecordUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to record updates: %w", err)
	}

	s.started = true
	go s.processEvents(eventChan)
	log.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the service and waits for the event loop to exit. Start and Stop are
// called from the same goroutine.
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if s.started {
		<-s.done
	}
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.RecordEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.RecordEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.InvalidatePatient(ctx, event.PatientUID); err != nil {
		log.Warn().Err(err).
			Str("event_id", event.ID).
			Str("patient_uid", event.PatientUID).
			Msg("failed to invalidate patient cache")
		return
	}
	log.Debug().
		Str("event_id", event.ID).
		Str("patient_uid", event.PatientUID).
		Str("event_type", string(event.EventType)).
		Msg("invalidated patient cache")
}

// InvalidatePatient drops the cached record and every cached dashboard of a patient
func (s *CacheInvalidationService) InvalidatePatient(ctx context.Context, uid string) error {
	if uid == "" {
		return nil
	}
	if err := s.cache.Delete(ctx, database.RecordCacheKey(uid)); err != nil {
		return fmt.Errorf("failed to invalidate record cache: %w", err)
	}
	if err := s.cache.DeletePattern(ctx, DashboardCachePattern(uid)); err != nil {
		return fmt.Errorf("failed to invalidate dashboard cache: %w", err)
	}
	return nil
}

// InvalidateAll drops every cached record and dashboard. Intended for maintenance
// after bulk imports.
func (s *CacheInvalidationService) InvalidateAll(ctx context.Context) error {
	for _, pattern := range []string{"record:*", "dashboard:*"} {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
	}
	log.Info().Msg("invalidated all record and dashboard caches")
	return nil
}
