package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/providers"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/eyetimeline/backend/internal/timeline"
	apperrors "github.com/zatekoja/eyetimeline/backend/pkg/errors"
)

// PatientPage is one page of the patient list
type PatientPage struct {
	Patients []*entities.PatientSummary `json:"patients"`
	Total    int                        `json:"total"`
	Limit    int                        `json:"limit"`
	Offset   int                        `json:"offset"`
}

// PatientService handles stored patient records
type PatientService struct {
	records  repositories.PatientRecordRepository
	eventBus providers.EventBus
	indexer  *PatientIndexService
}

// NewPatientService creates a new patient service. eventBus and indexer may be nil.
func NewPatientService(
	records repositories.PatientRecordRepository,
	eventBus providers.EventBus,
	indexer *PatientIndexService,
) *PatientService {
	return &PatientService{
		records:  records,
		eventBus: eventBus,
		indexer:  indexer,
	}
}

// Get returns one patient's raw record
func (s *PatientService) Get(ctx context.Context, uid string) (*entities.PatientRecord, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, apperrors.NewValidationError("patient uid is required")
	}
	return s.records.GetByUID(ctx, uid)
}

// List returns one page of patient summaries with the total record count
func (s *PatientService) List(ctx context.Context, filter repositories.PatientFilter) (*PatientPage, error) {
	patients, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.records.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &PatientPage{
		Patients: patients,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

// Upsert stores a record, recomputing its visit metadata, then announces the change
// and refreshes the search index. Publish and index failures do not fail the write.
func (s *PatientService) Upsert(ctx context.Context, record *entities.PatientRecord) error {
	if record == nil || strings.TrimSpace(record.UID) == "" {
		return apperrors.NewValidationError("patient uid is required")
	}
	record.UID = strings.TrimSpace(record.UID)
	timeline.RefreshMetadata(record)

	if err := s.records.Upsert(ctx, record); err != nil {
		return err
	}

	s.publish(ctx, record.UID, entities.RecordEventUpserted)
	if s.indexer != nil {
		if err := s.indexer.IndexRecord(ctx, record); err != nil {
			log.Warn().Err(err).Str("uid", record.UID).Msg("failed to index patient after upsert")
		}
	}
	return nil
}

// Delete removes a record, announces it and drops it from the search index
func (s *PatientService) Delete(ctx context.Context, uid string) error {
	if err := s.records.Delete(ctx, uid); err != nil {
		return err
	}

	s.publish(ctx, uid, entities.RecordEventDeleted)
	if s.indexer != nil {
		if err := s.indexer.Remove(ctx, uid); err != nil {
			log.Warn().Err(err).Str("uid", uid).Msg("failed to remove patient from index")
		}
	}
	return nil
}

// Search finds patients through the search index
func (s *PatientService) Search(ctx context.Context, params repositories.PatientSearchParams) (*entities.PatientSearchResult, error) {
	if s.indexer == nil {
		return nil, apperrors.NewExternalError("patient search is not configured", nil)
	}
	return s.indexer.Search(ctx, params)
}

func (s *PatientService) publish(ctx context.Context, uid string, eventType entities.RecordEventType) {
	if s.eventBus == nil {
		return
	}
	event := &entities.RecordEvent{
		ID:         uuid.New().String(),
		PatientUID: uid,
		EventType:  eventType,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.eventBus.Publish(ctx, providers.EventChannelRecordUpdates, event); err != nil {
		log.Warn().Err(err).Str("uid", uid).Str("event_type", string(eventType)).Msg("failed to publish record event")
	}
}
