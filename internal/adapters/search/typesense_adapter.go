package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
	tsclient "github.com/zatekoja/eyetimeline/backend/internal/infrastructure/clients/typesense"
)

const (
	patientQueryBy  = "diagnoses,procedures,medications,name,mr_no"
	patientFacetBy  = "diagnoses,procedure_categories"
	patientSortBy   = "last_visit_ts:desc"
	defaultPageSize = 20
	maxPageSize     = 250
)

// TypesenseAdapter implements patient search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements PatientSearchRepository
var _ repositories.PatientSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the patients collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	return a.client.InitSchema(ctx)
}

// Index adds or replaces a patient document
func (a *TypesenseAdapter) Index(ctx context.Context, doc *entities.PatientIndexDocument) error {
	if doc == nil || doc.UID == "" {
		return fmt.Errorf("patient document requires an id")
	}

	_, err := a.client.Client().Collection(a.client.Collection()).Documents().Upsert(ctx, documentMap(doc))
	if err != nil {
		return fmt.Errorf("failed to index patient %s: %w", doc.UID, err)
	}
	return nil
}

// Delete removes a patient from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, uid string) error {
	_, err := a.client.Client().Collection(a.client.Collection()).Document(uid).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete patient from index: %w", err)
	}
	return nil
}

// Search finds patients by diagnosis, procedure, medication or identity
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.PatientSearchParams) (*entities.PatientSearchResult, error) {
	result, err := a.client.Client().Collection(a.client.Collection()).Documents().Search(ctx, buildSearchParams(params))
	if err != nil {
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}
	return decodeSearchResult(result)
}

func buildSearchParams(params repositories.PatientSearchParams) *api.SearchCollectionParams {
	q := strings.TrimSpace(params.Query)
	if q == "" {
		q = "*"
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String(patientQueryBy),
		SortBy:  pointer.String(patientSortBy),
		Page:    pointer.Int(offset/limit + 1),
		PerPage: pointer.Int(limit),
	}
	if category := strings.TrimSpace(params.ProcedureCategory); category != "" {
		searchParams.FilterBy = pointer.String(fmt.Sprintf("procedure_categories:=[`%s`]", category))
	}
	if params.IncludeFacets {
		searchParams.FacetBy = pointer.String(patientFacetBy)
	}
	return searchParams
}

func decodeSearchResult(result *api.SearchResult) (*entities.PatientSearchResult, error) {
	out := &entities.PatientSearchResult{Patients: []entities.PatientIndexDocument{}}
	if result == nil {
		return out, nil
	}
	if result.Found != nil {
		out.Found = *result.Found
	}
	if result.SearchTimeMs != nil {
		out.SearchTime = float64(*result.SearchTimeMs)
	}

	if result.Hits != nil {
		for _, hit := range *result.Hits {
			if hit.Document == nil {
				continue
			}
			// Typesense hands back loosely typed maps; round-trip through JSON into the document type
			raw, err := json.Marshal(*hit.Document)
			if err != nil {
				return nil, fmt.Errorf("failed to encode search hit: %w", err)
			}
			var doc entities.PatientIndexDocument
			if err := json.Unmarshal(raw, &doc); err != nil {
				return nil, fmt.Errorf("failed to decode search hit: %w", err)
			}
			out.Patients = append(out.Patients, doc)
		}
	}

	if result.FacetCounts != nil {
		out.Facets = make(map[string][]entities.FacetCount)
		for _, fc := range *result.FacetCounts {
			if fc.FieldName == nil || fc.Counts == nil {
				continue
			}
			counts := make([]entities.FacetCount, 0, len(*fc.Counts))
			for _, c := range *fc.Counts {
				if c.Value == nil || c.Count == nil {
					continue
				}
				counts = append(counts, entities.FacetCount{Value: *c.Value, Count: *c.Count})
			}
			out.Facets[*fc.FieldName] = counts
		}
	}
	return out, nil
}

func documentMap(doc *entities.PatientIndexDocument) map[string]interface{} {
	return map[string]interface{}{
		"id":                   doc.UID,
		"mr_no":                doc.MRNo,
		"name":                 doc.Name,
		"diagnoses":            doc.Diagnoses,
		"procedures":           doc.Procedures,
		"procedure_categories": doc.ProcedureCategories,
		"medications":          doc.Medications,
		"visit_count":          doc.VisitCount,
		"first_visit":          doc.FirstVisit,
		"last_visit":           doc.LastVisit,
		"last_visit_ts":        doc.LastVisitTS,
	}
}
