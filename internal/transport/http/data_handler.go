package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "leadpulse/internal/errors"
	"leadpulse/pkg/contracts/domain"
)

// DataHandler serves the lead views and aggregates behind the dashboard.
type DataHandler struct {
	service      DataServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates the data handler.
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/leads", h.GetLeads)
	r.Get("/kpis", h.GetKPIs)
	r.Post("/refresh", h.PostRefresh)

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/status-distribution", h.GetStatusDistribution)
		r.Get("/daily-trend", h.GetDailyTrend)
		r.Get("/histogram", h.GetHistogram)
		r.Get("/quartiles", h.GetQuartiles)
		r.Get("/stats", h.GetStats)
		r.Get("/top/{field}", h.GetTopByField)
	})

	return r
}

// leadJSON is the wire shape of one lead: typed fields plus the raw
// pass-through columns.
type leadJSON struct {
	DateGenerated   string             `json:"date_generated,omitempty"`
	FitScore        *float64           `json:"fit_score,omitempty"`
	ExperienceYears *float64           `json:"experience_years,omitempty"`
	Fields          map[string]string  `json:"fields"`
}

func toLeadJSON(lead domain.Lead) leadJSON {
	out := leadJSON{
		FitScore:        lead.FitScore,
		ExperienceYears: lead.ExperienceYears,
		Fields:          lead.Fields,
	}
	if lead.DateGenerated != nil {
		out.DateGenerated = lead.DateGenerated.Format("2006-01-02")
	}
	return out
}

// GetLeads handles GET /api/leads.
func (h *DataHandler) GetLeads(w http.ResponseWriter, r *http.Request) {
	criteria, _, err := parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filtered, snapshot := h.service.Filtered(criteria)
	leads := make([]leadJSON, 0, len(filtered))
	for _, lead := range filtered {
		leads = append(leads, toLeadJSON(lead))
	}

	render.JSON(w, r, map[string]interface{}{
		"leads":      leads,
		"count":      len(leads),
		"total":      len(snapshot.Leads),
		"fetched_at": snapshot.FetchedAt,
		"criteria":   criteria,
	})
}

// GetKPIs handles GET /api/kpis.
func (h *DataHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	criteria, _, err := parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, h.service.KPIs(criteria))
}

// PostRefresh handles POST /api/refresh, the manual retry the dashboard
// offers when the source is unavailable.
func (h *DataHandler) PostRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	snapshot := h.service.Snapshot()
	render.JSON(w, r, map[string]interface{}{
		"status":     "refreshed",
		"lead_count": len(snapshot.Leads),
		"fetched_at": snapshot.FetchedAt.Format(time.RFC3339),
	})
}

// GetStatusDistribution handles GET /api/analytics/status-distribution.
func (h *DataHandler) GetStatusDistribution(w http.ResponseWriter, r *http.Request) {
	criteria, _, err := parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, h.service.StatusDistribution(criteria))
}

// GetDailyTrend handles GET /api/analytics/daily-trend.
func (h *DataHandler) GetDailyTrend(w http.ResponseWriter, r *http.Request) {
	criteria, _, err := parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, h.service.DailyTrend(criteria))
}

// GetHistogram handles GET /api/analytics/histogram.
func (h *DataHandler) GetHistogram(w http.ResponseWriter, r *http.Request) {
	criteria, bins, err := parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, h.service.ScoreHistogram(criteria, bins))
}

// GetQuartiles handles GET /api/analytics/quartiles.
func (h *DataHandler) GetQuartiles(w http.ResponseWriter, r *http.Request) {
	criteria, _, err := parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, h.service.ScoreQuartiles(criteria))
}

// GetStats handles GET /api/analytics/stats.
func (h *DataHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	criteria, _, err := parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, h.service.ScoreStats(criteria))
}

// GetTopByField handles GET /api/analytics/top/{field}. The optional n
// query parameter caps the list, default 10.
func (h *DataHandler) GetTopByField(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	if field == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("field", "field name is required"))
		return
	}

	criteria, _, err := parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, convErr := strconv.Atoi(raw)
		if convErr != nil || parsed <= 0 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("n", "n must be a positive integer"))
			return
		}
		n = parsed
	}

	render.JSON(w, r, h.service.TopByField(criteria, field, n))
}
