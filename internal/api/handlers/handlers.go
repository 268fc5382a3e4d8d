package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/domain"
	infra "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/worker"
)

// ReviewContexts builds monthly review contexts.
type ReviewContexts interface {
	Context(ctx context.Context, userID string, year, month int) (*domain.MonthlyReviewContext, error)
}

// ForesightContexts builds foresight contexts.
type ForesightContexts interface {
	Context(ctx context.Context, userID string, now time.Time) (*domain.ForesightContext, error)
}

// AnalyticsHandler serves the analytics contexts behind each report.
type AnalyticsHandler struct {
	reviews   ReviewContexts
	foresight ForesightContexts
	log       zerolog.Logger
	now       func() time.Time
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(reviews ReviewContexts, foresight ForesightContexts, log zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		reviews:   reviews,
		foresight: foresight,
		log:       log,
		now:       time.Now,
	}
}

// MonthlyReview handles GET /api/analytics/monthly-review?user_id=&year=&month=
// The month defaults to the one before the current month.
func (h *AnalyticsHandler) MonthlyReview(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID := query.Get("user_id")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	year, month := worker.PreviousMonth(h.now())
	if v := query.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid year")
			return
		}
		year = y
	}
	if v := query.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid month")
			return
		}
		month = m
	}

	rc, err := h.reviews.Context(r.Context(), userID, year, month)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to build monthly review context")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build monthly review")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, rc)
}

// Foresight handles GET /api/analytics/foresight?user_id=
func (h *AnalyticsHandler) Foresight(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	fc, err := h.foresight.Context(r.Context(), userID, h.now())
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to build foresight context")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build foresight")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, fc)
}

// InsightsHandler serves stored insights.
type InsightsHandler struct {
	repo infra.InsightRepository
	log  zerolog.Logger
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(repo infra.InsightRepository, log zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{
		repo: repo,
		log:  log,
	}
}

// InsightView is the API shape of a stored insight.
type InsightView struct {
	InsightID   string    `json:"insight_id"`
	SK          string    `json:"sk"`
	ReportKind  string    `json:"report_kind"`
	InsightType string    `json:"insight_type"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Viewed      bool      `json:"viewed"`
	Dismissed   bool      `json:"dismissed"`

	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Actions []string `json:"actions"`
	Impact  string   `json:"impact"`

	Visualization    json.RawMessage `json:"visualization,omitempty"`
	KeyMetric        json.RawMessage `json:"key_metric,omitempty"`
	FullContent      json.RawMessage `json:"full_content,omitempty"`
	GoalContext      json.RawMessage `json:"goal_context,omitempty"`
	ReallocationPlan json.RawMessage `json:"reallocation_plan,omitempty"`

	Timeframe   string `json:"timeframe,omitempty"`
	Confidence  string `json:"confidence,omitempty"`
	TargetMonth string `json:"target_month,omitempty"`
}

// NewInsightView converts a stored row into its API shape.
func NewInsightView(row *infra.InsightRow) InsightView {
	raw := func(valid bool, s string) json.RawMessage {
		if !valid || s == "" {
			return nil
		}
		return json.RawMessage(s)
	}

	actions := row.Actions
	if actions == nil {
		actions = []string{}
	}

	return InsightView{
		InsightID:        row.InsightID,
		SK:               row.SK,
		ReportKind:       row.ReportKind,
		InsightType:      row.InsightType,
		Priority:         row.Priority,
		Status:           row.Status,
		GeneratedAt:      row.GeneratedAt,
		ExpiresAt:        row.ExpiresAt,
		Viewed:           row.Viewed,
		Dismissed:        row.Dismissed,
		Title:            row.Title,
		Summary:          row.Summary,
		Actions:          actions,
		Impact:           row.Impact,
		Visualization:    raw(row.Visualization.Valid, row.Visualization.JSONVal),
		KeyMetric:        raw(row.KeyMetric.Valid, row.KeyMetric.JSONVal),
		FullContent:      raw(row.FullContent.Valid, row.FullContent.JSONVal),
		GoalContext:      raw(row.GoalContext.Valid, row.GoalContext.JSONVal),
		ReallocationPlan: raw(row.ReallocationPlan.Valid, row.ReallocationPlan.JSONVal),
		Timeframe:        row.Timeframe.StringVal,
		Confidence:       row.Confidence.StringVal,
		TargetMonth:      row.TargetMonth.StringVal,
	}
}

// ListInsights handles GET /api/insights?user_id=&kind=&include_expired=&limit=
func (h *InsightsHandler) ListInsights(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := infra.InsightFilter{
		UserID:     query.Get("user_id"),
		ReportKind: query.Get("kind"),
	}
	if filter.UserID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if v := query.Get("include_expired"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.IncludeExpired = b
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	rows, err := h.repo.ListInsights(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", filter.UserID).Msg("Failed to list insights")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list insights")
		return
	}

	views := make([]InsightView, 0, len(rows))
	for _, row := range rows {
		views = append(views, NewInsightView(row))
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"insights": views,
		"count":    len(views),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store     jobs.JobStore
	publisher jobs.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, publisher jobs.Publisher, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store:     store,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// CreateJob handles POST /api/jobs
func (h *JobsHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type    jobs.JobType `json:"type"`
		UserID  string       `json:"user_id"`
		Year    int          `json:"year"`
		Month   int          `json:"month"`
		Replace bool         `json:"replace"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	job := &jobs.AnalyticsJob{
		Type:    req.Type,
		UserID:  req.UserID,
		Year:    req.Year,
		Month:   req.Month,
		Replace: req.Replace,
	}
	if job.Type == jobs.JobTypeMonthlyReview && job.Year == 0 && job.Month == 0 {
		job.Year, job.Month = worker.PreviousMonth(h.now())
	}
	if err := job.Validate(); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.publisher.Publish(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	// A worker may already own job; only fields it never writes are read here.

	h.log.Info().
		Str("job_id", job.JobID).
		Str("job_type", string(job.Type)).
		Str("user_id", job.UserID).
		Msg("Job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"type":    string(job.Type),
		"user_id": job.UserID,
		"status":  string(jobs.JobStatusPending),
	})
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: query.Get("user_id"),
		Type:   jobs.JobType(query.Get("type")),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
