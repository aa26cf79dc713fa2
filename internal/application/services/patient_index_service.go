package services

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eyetimeline/backend/internal/adapters/search"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/eyetimeline/backend/pkg/errors"
)

// ReindexSummary reports the outcome of a full reindex
type ReindexSummary struct {
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

// PatientIndexService keeps the patient search index in step with stored records
type PatientIndexService struct {
	records  repositories.PatientRecordRepository
	index    repositories.PatientSearchRepository
	pageSize int
}

// NewPatientIndexService creates a new patient index service
func NewPatientIndexService(
	records repositories.PatientRecordRepository,
	index repositories.PatientSearchRepository,
	pageSize int,
) *PatientIndexService {
	if pageSize <= 0 {
		pageSize = 200
	}
	return &PatientIndexService{records: records, index: index, pageSize: pageSize}
}

// IndexRecord projects a record onto a search document and upserts it
func (s *PatientIndexService) IndexRecord(ctx context.Context, record *entities.PatientRecord) error {
	doc := search.BuildIndexDocument(record)
	if doc == nil {
		return apperrors.NewValidationError("cannot index an empty record")
	}
	if err := s.index.Index(ctx, doc); err != nil {
		return apperrors.NewExternalError("failed to index patient "+record.UID, err)
	}
	return nil
}

// Remove deletes a patient from the index
func (s *PatientIndexService) Remove(ctx context.Context, uid string) error {
	if err := s.index.Delete(ctx, uid); err != nil {
		return apperrors.NewExternalError("failed to remove patient "+uid+" from index", err)
	}
	return nil
}

// Search queries the index
func (s *PatientIndexService) Search(ctx context.Context, params repositories.PatientSearchParams) (*entities.PatientSearchResult, error) {
	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, apperrors.NewExternalError("patient search failed", err)
	}
	return result, nil
}

// ReindexAll walks every stored record page by page and indexes it. Individual
// failures are counted and logged; listing failures abort the run.
func (s *PatientIndexService) ReindexAll(ctx context.Context) (*ReindexSummary, error) {
	var indexed, failed int64

	for offset := 0; ; offset += s.pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := s.records.List(ctx, repositories.PatientFilter{Limit: s.pageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		uids := make([]string, len(page))
		for i, p := range page {
			uids[i] = p.UID
		}
		records, err := s.records.GetByUIDs(ctx, uids)
		if err != nil {
			return nil, err
		}

		for _, record := range records {
			if err := s.IndexRecord(ctx, record); err != nil {
				atomic.AddInt64(&failed, 1)
				log.Warn().Err(err).Str("uid", record.UID).Msg("failed to index patient")
				continue
			}
			atomic.AddInt64(&indexed, 1)
		}

		if len(page) < s.pageSize {
			break
		}
	}

	summary := &ReindexSummary{Indexed: int(indexed), Failed: int(failed)}
	log.Info().Int("indexed", summary.Indexed).Int("failed", summary.Failed).Msg("patient reindex completed")
	return summary, nil
}
