package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/zatekoja/eyetimeline/backend/internal/api/loaders"
	"github.com/zatekoja/eyetimeline/backend/internal/application/services"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/entities"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/eyetimeline/backend/internal/procedures"
	apperrors "github.com/zatekoja/eyetimeline/backend/pkg/errors"
)

// DashboardService is the view-model service used by DashboardHandler
type DashboardService interface {
	Dashboard(ctx context.Context, uid string, eye entities.EyeSelector) (*entities.Dashboard, error)
	Series(ctx context.Context, uid string, eye entities.EyeSelector) (*entities.Series, error)
	Intervals(ctx context.Context, uid, category string, eye entities.EyeSelector) ([]entities.Interval, error)
	Medications(ctx context.Context, uid string, eye entities.EyeSelector) ([]entities.MedicationInterval, error)
	Procedures(ctx context.Context, uid string, eye entities.EyeSelector) ([]entities.ProcedureSummary, error)
	Build(ctx context.Context, record *entities.PatientRecord, eye entities.EyeSelector, palette *procedures.Palette) *entities.Dashboard
	Store(ctx context.Context, dashboard *entities.Dashboard) bool
	NewPalette() *procedures.Palette
}

// BatchDashboardRequest is the body of POST /api/dashboards/batch
type BatchDashboardRequest struct {
	UIDs []string `json:"uids"`
	Eye  string   `json:"eye"`
}

// BatchDashboardResponse lists the built dashboards and the UIDs that could not be served
type BatchDashboardResponse struct {
	Dashboards []*entities.Dashboard `json:"dashboards"`
	Missing    []string              `json:"missing"`
	Count      int                   `json:"count"`
}

// DashboardHandler handles derived timeline view requests
type DashboardHandler struct {
	service    DashboardService
	records    repositories.PatientRecordRepository
	defaultEye entities.EyeSelector
	maxBatch   int
}

// NewDashboardHandler creates a new dashboard handler. records backs the batch
// endpoint when no request-scoped loaders are attached.
func NewDashboardHandler(
	service DashboardService,
	records repositories.PatientRecordRepository,
	defaultEye entities.EyeSelector,
	maxBatch int,
) *DashboardHandler {
	if !defaultEye.IsValid() {
		defaultEye = entities.EyeRight
	}
	return &DashboardHandler{
		service:    service,
		records:    records,
		defaultEye: defaultEye,
		maxBatch:   maxBatch,
	}
}

func (h *DashboardHandler) eye(r *http.Request) (entities.EyeSelector, error) {
	return services.ParseEye(r.URL.Query().Get("eye"), h.defaultEye)
}

// GetDashboard handles GET /api/patients/{uid}/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	eye, err := h.eye(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	dashboard, err := h.service.Dashboard(r.Context(), r.PathValue("uid"), eye)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, dashboard)
}

// GetSeries handles GET /api/patients/{uid}/series
func (h *DashboardHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	eye, err := h.eye(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	series, err := h.service.Series(r.Context(), r.PathValue("uid"), eye)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, series)
}

// GetIntervals handles GET /api/patients/{uid}/intervals/{category}. The medication
// track carries dosage and has its own shape.
func (h *DashboardHandler) GetIntervals(w http.ResponseWriter, r *http.Request) {
	eye, err := h.eye(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	uid := r.PathValue("uid")
	category := strings.ToLower(r.PathValue("category"))

	if category == "medication" || category == "medications" {
		meds, err := h.service.Medications(r.Context(), uid, eye)
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"category":  "medications",
			"intervals": meds,
			"count":     len(meds),
		})
		return
	}

	intervals, err := h.service.Intervals(r.Context(), uid, category, eye)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if intervals == nil {
		intervals = []entities.Interval{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"category":  category,
		"intervals": intervals,
		"count":     len(intervals),
	})
}

// GetProcedures handles GET /api/patients/{uid}/procedures
func (h *DashboardHandler) GetProcedures(w http.ResponseWriter, r *http.Request) {
	eye, err := h.eye(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	procs, err := h.service.Procedures(r.Context(), r.PathValue("uid"), eye)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if procs == nil {
		procs = []entities.ProcedureSummary{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"procedures": procs,
		"count":      len(procs),
	})
}

// BatchDashboards handles POST /api/dashboards/batch. Records are fetched through the
// request's dataloader in as few queries as the batch capacity allows, and each
// patient gets a fresh palette.
func (h *DashboardHandler) BatchDashboards(w http.ResponseWriter, r *http.Request) {
	var req BatchDashboardRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	uids := dedupeUIDs(req.UIDs)
	if len(uids) == 0 {
		respondWithError(w, http.StatusBadRequest, "uids is required")
		return
	}
	if h.maxBatch > 0 && len(uids) > h.maxBatch {
		respondWithAppError(w, r, apperrors.NewValidationError(
			fmt.Sprintf("at most %d uids per batch, got %d", h.maxBatch, len(uids)),
		))
		return
	}

	eye, err := services.ParseEye(req.Eye, h.defaultEye)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	l := loaders.For(r.Context())
	if l == nil {
		l = loaders.NewLoaders(h.records, h.maxBatch)
	}
	records, errs := l.LoadRecords(r.Context(), uids)

	resp := BatchDashboardResponse{
		Dashboards: make([]*entities.Dashboard, 0, len(uids)),
		Missing:    []string{},
	}
	for i, uid := range uids {
		if errs[i] != nil {
			if !apperrors.IsNotFound(errs[i]) {
				respondWithAppError(w, r, errs[i])
				return
			}
			resp.Missing = append(resp.Missing, uid)
			continue
		}
		dashboard := h.service.Build(r.Context(), records[i], eye, h.service.NewPalette())
		h.service.Store(r.Context(), dashboard)
		resp.Dashboards = append(resp.Dashboards, dashboard)
	}
	resp.Count = len(resp.Dashboards)

	respondWithJSON(w, http.StatusOK, resp)
}

func dedupeUIDs(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	uids := make([]string, 0, len(raw))
	for _, uid := range raw {
		uid = strings.TrimSpace(uid)
		if uid == "" {
			continue
		}
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		uids = append(uids, uid)
	}
	return uids
}
