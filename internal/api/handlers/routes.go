package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dvloznov/finance-insights/internal/api/middleware"
)

// Register mounts the API endpoints on r. Unknown paths and methods answer
// with a JSON error body like every other endpoint.
func Register(r chi.Router, analytics *AnalyticsHandler, insights *InsightsHandler, jobsHandler *JobsHandler) {
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/analytics/monthly-review", analytics.MonthlyReview)
		r.Get("/analytics/foresight", analytics.Foresight)

		r.Get("/insights", insights.ListInsights)

		r.Get("/jobs", jobsHandler.ListJobs)
		r.Post("/jobs", jobsHandler.CreateJob)
		r.Get("/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
			jobsHandler.GetJob(w, r, chi.URLParam(r, "id"))
		})
	})
}
