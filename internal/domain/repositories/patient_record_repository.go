package repositories

import (
	"context"

	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
)

// PatientRecordRepository defines the interface for stored patient records
type PatientRecordRepository interface {
	// GetByUID retrieves one full record
	GetByUID(ctx context.Context, uid string) (*entities.PatientRecord, error)

	// GetByUIDs retrieves several records; unknown UIDs are omitted
	GetByUIDs(ctx context.Context, uids []string) ([]*entities.PatientRecord, error)

	// List retrieves record summaries ordered by UID
	List(ctx context.Context, filter PatientFilter) ([]*entities.PatientSummary, error)

	// Count returns the number of stored records
	Count(ctx context.Context) (int, error)

	// Upsert inserts or replaces a record
	Upsert(ctx context.Context, record *entities.PatientRecord) error

	// Delete removes a record
	Delete(ctx context.Context, uid string) error
}

// PatientFilter defines paging and filters for listing records
type PatientFilter struct {
	MRNo   string
	Limit  int
	Offset int
}

// PatientSearchRepository defines the interface for the patient search index
type PatientSearchRepository interface {
	// Index adds or replaces a patient document
	Index(ctx context.Context, doc *entities.PatientIndexDocument) error

	// Search finds patients by diagnosis, procedure, medication or identity
	Search(ctx context.Context, params PatientSearchParams) (*entities.PatientSearchResult, error)

	// Delete removes a patient from the index
	Delete(ctx context.Context, uid string) error
}

// PatientSearchParams defines parameters for patient search
type PatientSearchParams struct {
	Query             string
	ProcedureCategory string
	Limit             int
	Offset            int
	IncludeFacets     bool
}
