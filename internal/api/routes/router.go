package routes

import (
	"net/http"

	"github.com/zatekoja/eyetimeline/backend/internal/api/handlers"
	"github.com/zatekoja/eyetimeline/backend/internal/api/loaders"
	"github.com/zatekoja/eyetimeline/backend/internal/api/middleware"
	"github.com/zatekoja/eyetimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/eyetimeline/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	healthHandler    *handlers.HealthHandler
	patientHandler   *handlers.PatientHandler
	dashboardHandler *handlers.DashboardHandler

	records        repositories.PatientRecordRepository
	maxBatch       int
	allowedOrigins []string
	metrics        *observability.Metrics
}

// Options carries the optional router settings
type Options struct {
	Records        repositories.PatientRecordRepository
	MaxBatch       int
	AllowedOrigins []string
	Metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	healthHandler *handlers.HealthHandler,
	patientHandler *handlers.PatientHandler,
	dashboardHandler *handlers.DashboardHandler,
	opts Options,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		healthHandler:    healthHandler,
		patientHandler:   patientHandler,
		dashboardHandler: dashboardHandler,
		records:          opts.Records,
		maxBatch:         opts.MaxBatch,
		allowedOrigins:   opts.AllowedOrigins,
		metrics:          opts.Metrics,
	}
}

// SetupRoutes registers every route and wraps the mux in middleware
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Patient records
	r.mux.HandleFunc("GET /api/patients", r.patientHandler.ListPatients)
	r.mux.HandleFunc("GET /api/patients/search", r.patientHandler.SearchPatients)
	r.mux.HandleFunc("GET /api/patients/{uid}", r.patientHandler.GetPatient)
	r.mux.HandleFunc("PUT /api/patients/{uid}", r.patientHandler.UpsertPatient)
	r.mux.HandleFunc("DELETE /api/patients/{uid}", r.patientHandler.DeletePatient)

	// Derived timeline views
	r.mux.HandleFunc("GET /api/patients/{uid}/dashboard", r.dashboardHandler.GetDashboard)
	r.mux.HandleFunc("GET /api/patients/{uid}/series", r.dashboardHandler.GetSeries)
	r.mux.HandleFunc("GET /api/patients/{uid}/intervals/{category}", r.dashboardHandler.GetIntervals)
	r.mux.HandleFunc("GET /api/patients/{uid}/procedures", r.dashboardHandler.GetProcedures)
	r.mux.HandleFunc("POST /api/dashboards/batch", r.dashboardHandler.BatchDashboards)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	if r.records != nil {
		handler = loaders.Middleware(r.records, r.maxBatch)(handler)
	}
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics, r.route)(handler)
	handler = middleware.LoggingMiddleware(handler)

	// CORS wraps everything so preflights short-circuit before logging and tracing
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}

func (r *Router) route(req *http.Request) string {
	_, pattern := r.mux.Handler(req)
	return pattern
}
