package http

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "leadpulse/internal/errors"
	"leadpulse/internal/exporter"
	"leadpulse/internal/infrastructure"
)

// Document is one report document under construction: the composer draws
// into it, Bytes finalizes it.
type Document interface {
	exporter.DocumentRenderer
	Bytes() ([]byte, error)
}

// DocumentFactory opens a fresh document for one report run. Nil when no
// document backend is configured.
type DocumentFactory func() Document

// ChartCapturer produces the chart images a report embeds.
type ChartCapturer interface {
	Capture(ctx context.Context, charts []exporter.ChartSpec) ([]exporter.ChartImage, error)
}

// ExportBroadcaster announces produced artifacts to connected dashboards.
type ExportBroadcaster interface {
	BroadcastExport(format, filename string)
}

// ExportHandler serves the CSV, XLSX and report downloads.
type ExportHandler struct {
	service      DataServiceInterface
	composer     *exporter.Composer
	documents    DocumentFactory
	capturer     ChartCapturer
	charts       []exporter.ChartSpec
	title        string
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	metrics      *infrastructure.BusinessMetrics
	broadcaster  ExportBroadcaster
}

// ExportHandlerConfig collects the export handler collaborators. Composer
// and service are required; the rest may be nil.
type ExportHandlerConfig struct {
	Service      DataServiceInterface
	Composer     *exporter.Composer
	Documents    DocumentFactory
	Capturer     ChartCapturer
	Charts       []exporter.ChartSpec
	ReportTitle  string
	Logger       *slog.Logger
	ErrorHandler *apierrors.ErrorHandler
	Metrics      *infrastructure.BusinessMetrics
	Broadcaster  ExportBroadcaster
}

// NewExportHandler creates the export handler.
func NewExportHandler(cfg ExportHandlerConfig) *ExportHandler {
	charts := cfg.Charts
	if len(charts) == 0 {
		charts = exporter.DefaultCharts
	}
	title := cfg.ReportTitle
	if title == "" {
		title = "Lead Management Report"
	}
	return &ExportHandler{
		service:      cfg.Service,
		composer:     cfg.Composer,
		documents:    cfg.Documents,
		capturer:     cfg.Capturer,
		charts:       charts,
		title:        title,
		logger:       cfg.Logger.With(slog.String("component", "export_handler")),
		errorHandler: cfg.ErrorHandler,
		metrics:      cfg.Metrics,
		broadcaster:  cfg.Broadcaster,
	}
}

// Routes returns the export routes.
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/csv", h.GetCSV)
	r.Get("/xlsx", h.GetXLSX)
	r.Post("/report", h.PostReport)
	return r
}

// GetCSV handles GET /api/export/csv.
func (h *ExportHandler) GetCSV(w http.ResponseWriter, r *http.Request) {
	criteria, _, err := parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filtered, snapshot := h.service.Filtered(criteria)
	if len(filtered) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrEmptyExport)
		return
	}

	var buf bytes.Buffer
	if err := exporter.WriteCSV(&buf, filtered, snapshot.Headers); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filename := fmt.Sprintf("leads_%s.csv", time.Now().Format("2006-01-02"))
	h.finishDownload(w, r, "csv", filename, "text/csv; charset=utf-8", buf.Bytes())
}

// GetXLSX handles GET /api/export/xlsx.
func (h *ExportHandler) GetXLSX(w http.ResponseWriter, r *http.Request) {
	criteria, _, err := parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filtered, snapshot := h.service.Filtered(criteria)
	if len(filtered) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrEmptyExport)
		return
	}

	var buf bytes.Buffer
	if err := exporter.WriteXLSX(&buf, filtered, snapshot.Headers); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filename := fmt.Sprintf("leads_%s.xlsx", time.Now().Format("2006-01-02"))
	h.finishDownload(w, r, "xlsx", filename,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// PostReport handles POST /api/export/report. Returns 503 when no document
// backend is configured.
func (h *ExportHandler) PostReport(w http.ResponseWriter, r *http.Request) {
	if h.documents == nil {
		h.errorHandler.HandleError(w, r, apierrors.New(http.StatusServiceUnavailable,
			"REPORT_BACKEND_UNAVAILABLE", "no report document backend is configured"))
		return
	}

	criteria, _, err := parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	// snapshot the filtered set before the slow capture step
	filtered, _ := h.service.Filtered(criteria)
	if len(filtered) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrEmptyExport)
		return
	}

	var charts []exporter.ChartImage
	if h.capturer != nil {
		captured, captureErr := h.capturer.Capture(r.Context(), h.charts)
		if captureErr != nil {
			// the report still carries KPIs and the table summary
			h.logger.WarnContext(r.Context(), "chart capture unavailable",
				slog.String("error", captureErr.Error()))
		} else {
			charts = captured
		}
	}

	doc := h.documents()
	input := exporter.ReportInput{
		Title:       h.title,
		Criteria:    criteria,
		Window:      criteria.Window,
		Leads:       filtered,
		KPIs:        h.service.KPIs(criteria),
		Charts:      charts,
		GeneratedAt: time.Now(),
	}
	if err := h.composer.Compose(r.Context(), doc, input); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	payload, err := doc.Bytes()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filename := exporter.ReportFilename(criteria, criteria.Window, time.Now())
	h.finishDownload(w, r, "report", filename, "application/pdf", payload)
}

func (h *ExportHandler) finishDownload(w http.ResponseWriter, r *http.Request, format, filename, contentType string, payload []byte) {
	h.metrics.RecordExport(r.Context(), format)
	if h.broadcaster != nil {
		h.broadcaster.BroadcastExport(format, filename)
	}
	h.logger.InfoContext(r.Context(), "export produced",
		slog.String("format", format),
		slog.String("filename", filename),
		slog.Int("bytes", len(payload)))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}
