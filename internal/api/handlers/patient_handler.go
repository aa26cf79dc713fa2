package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zatekoja/eyetimeline/backend/internal/application/services"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/eyetimeline/backend/pkg/errors"
)

const maxRecordBytes = 8 << 20

// PatientService is the record service used by PatientHandler
type PatientService interface {
	Get(ctx context.Context, uid string) (*entities.PatientRecord, error)
	List(ctx context.Context, filter repositories.PatientFilter) (*services.PatientPage, error)
	Upsert(ctx context.Context, record *entities.PatientRecord) error
	Delete(ctx context.Context, uid string) error
	Search(ctx context.Context, params repositories.PatientSearchParams) (*entities.PatientSearchResult, error)
}

// PatientHandler handles patient record HTTP requests
type PatientHandler struct {
	service PatientService
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(service PatientService) *PatientHandler {
	return &PatientHandler{service: service}
}

// ListPatients handles GET /api/patients
func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	page, err := h.service.List(r.Context(), repositories.PatientFilter{
		MRNo:   r.URL.Query().Get("mr_no"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

// GetPatient handles GET /api/patients/{uid}
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if uid == "" {
		respondWithError(w, http.StatusBadRequest, "patient uid is required")
		return
	}

	record, err := h.service.Get(r.Context(), uid)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, record)
}

// UpsertPatient handles PUT /api/patients/{uid}. The path uid wins over any uid in
// the body.
func (h *PatientHandler) UpsertPatient(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if uid == "" {
		respondWithError(w, http.StatusBadRequest, "patient uid is required")
		return
	}

	var record entities.PatientRecord
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecordBytes)).Decode(&record); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid record body")
		return
	}
	record.UID = uid

	if err := h.service.Upsert(r.Context(), &record); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, record.Summary())
}

// DeletePatient handles DELETE /api/patients/{uid}
func (h *PatientHandler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if uid == "" {
		respondWithError(w, http.StatusBadRequest, "patient uid is required")
		return
	}

	if err := h.service.Delete(r.Context(), uid); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchPatients handles GET /api/patients/search
func (h *PatientHandler) SearchPatients(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	query := r.URL.Query()
	result, err := h.service.Search(r.Context(), repositories.PatientSearchParams{
		Query:             query.Get("q"),
		ProcedureCategory: query.Get("category"),
		Limit:             limit,
		Offset:            offset,
		IncludeFacets:     query.Get("facets") == "true",
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if result == nil {
		respondWithAppError(w, r, apperrors.NewInternalError("search returned no result", nil))
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
