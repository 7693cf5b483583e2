package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"leadpulse/internal/dataprocessing"
	apierrors "leadpulse/internal/errors"
	"leadpulse/internal/infrastructure"
	"leadpulse/pkg/contracts/domain"
)

// Page geometry in millimeters, A4 portrait with a uniform margin.
const (
	pageWidth  = 210.0
	pageHeight = 297.0
	margin     = 15.0

	titleSize   = 18.0
	captionSize = 11.0
	bodySize    = 10.0
	lineHeight  = 7.0
	chartHeight = 90.0
)

// DocumentRenderer is the external document collaborator. The composer
// decides layout and pagination; the renderer only places primitives.
type DocumentRenderer interface {
	AddPage()
	Text(x, y, size float64, bold bool, text string)
	Image(x, y, w, h float64, png []byte) error
}

// ChartImage is one captured chart ready for placement, in display order.
type ChartImage struct {
	ID      string
	Caption string
	PNG     []byte
}

// ReportInput is everything one report run needs, snapshotted at invocation.
type ReportInput struct {
	Title       string
	Criteria    domain.FilterCriteria
	Window      *domain.DateWindow
	Leads       []domain.Lead
	KPIs        domain.KPISummary
	Charts      []ChartImage
	GeneratedAt time.Time
}

// Composer lays filtered data and chart images out into a paginated
// document.
type Composer struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
}

// NewComposer creates a report composer. metrics may be nil.
func NewComposer(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Composer {
	return &Composer{
		logger:  logger.With(slog.String("component", "report_composer")),
		tracer:  otel.Tracer(infrastructure.ServiceName),
		metrics: metrics,
	}
}

// Compose writes the report into the renderer: a header with the title and
// period caption, the KPI block, then one captioned block per chart image.
// A block that would overflow the remaining page space starts a new page. A
// chart image that fails to place is logged and skipped; the remaining
// blocks still render, so a partial document is produced rather than none.
func (c *Composer) Compose(ctx context.Context, renderer DocumentRenderer, input ReportInput) error {
	if len(input.Leads) == 0 {
		return apierrors.ErrEmptyExport
	}

	ctx, span := c.tracer.Start(ctx, "export.compose",
		trace.WithAttributes(
			attribute.Int("leads", len(input.Leads)),
			attribute.Int("charts", len(input.Charts)),
		))
	defer span.End()

	y := margin
	renderer.Text(margin, y, titleSize, true, input.Title)
	y += lineHeight * 1.5
	renderer.Text(margin, y, captionSize, false, PeriodCaption(input.Criteria, input.Window))
	y += lineHeight
	renderer.Text(margin, y, bodySize, false,
		fmt.Sprintf("Generated %s", input.GeneratedAt.Format("2006-01-02 15:04")))
	y += lineHeight * 1.5

	y = c.renderKPIs(renderer, y, input.KPIs)

	placed := 0
	for _, chart := range input.Charts {
		// caption line plus the image itself
		blockHeight := lineHeight + chartHeight
		if y+blockHeight > pageHeight-margin {
			renderer.AddPage()
			y = margin
		}
		renderer.Text(margin, y, captionSize, true, chart.Caption)
		y += lineHeight
		if err := renderer.Image(margin, y, pageWidth-2*margin, chartHeight, chart.PNG); err != nil {
			captureErr := &apierrors.ChartCaptureError{ChartID: chart.ID, Err: err}
			c.logger.WarnContext(ctx, "chart block skipped",
				slog.String("chart_id", chart.ID),
				slog.String("error", captureErr.Error()))
			continue
		}
		y += chartHeight + lineHeight
		placed++
	}

	span.SetAttributes(attribute.Int("charts_placed", placed))
	c.metrics.RecordExport(ctx, "report")
	c.logger.InfoContext(ctx, "report composed",
		slog.Int("leads", len(input.Leads)),
		slog.Int("charts_placed", placed),
		slog.Int("charts_skipped", len(input.Charts)-placed))
	return nil
}

func (c *Composer) renderKPIs(renderer DocumentRenderer, y float64, kpis domain.KPISummary) float64 {
	renderer.Text(margin, y, captionSize, true, "Key figures")
	y += lineHeight
	lines := []string{
		fmt.Sprintf("Total records: %d", kpis.TotalRecords),
		fmt.Sprintf("With fit score: %d", kpis.TotalWithFitScore),
		fmt.Sprintf("Invited: %d", kpis.Invited),
		fmt.Sprintf("Accepted: %d", kpis.Accepted),
		fmt.Sprintf("Pending leads: %d", kpis.PendingLeads),
	}
	for _, line := range lines {
		renderer.Text(margin, y, bodySize, false, line)
		y += lineHeight
	}
	return y + lineHeight
}

// PeriodCaption renders the active period for the report header.
func PeriodCaption(criteria domain.FilterCriteria, window *domain.DateWindow) string {
	switch {
	case criteria.PeriodType == domain.PeriodDaily && window != nil:
		return "Day " + dataprocessing.FormatDayMonthYear(window.Start)
	case criteria.PeriodType == domain.PeriodWeekly && window != nil:
		return fmt.Sprintf("Week %s to %s",
			dataprocessing.FormatDayMonthYear(window.Start),
			dataprocessing.FormatDayMonthYear(window.End))
	case criteria.PeriodType == domain.PeriodMonthly && window != nil:
		return "Month " + window.Start.Format("January 2006")
	case window != nil:
		return fmt.Sprintf("%s to %s",
			dataprocessing.FormatDayMonthYear(window.Start),
			dataprocessing.FormatDayMonthYear(window.End))
	default:
		return "All time"
	}
}

// ReportFilename derives the download name from the active period.
func ReportFilename(criteria domain.FilterCriteria, window *domain.DateWindow, now time.Time) string {
	switch {
	case criteria.PeriodType == domain.PeriodDaily && window != nil:
		return fmt.Sprintf("lead_report_%s.pdf", dataprocessing.DayKey(window.Start))
	case criteria.PeriodType == domain.PeriodWeekly && window != nil:
		return fmt.Sprintf("lead_report_week_%s_to_%s.pdf",
			dataprocessing.DayKey(window.Start), dataprocessing.DayKey(window.End))
	case criteria.PeriodType == domain.PeriodMonthly && window != nil:
		return fmt.Sprintf("lead_report_month_%s.pdf", window.Start.Format("2006-01"))
	case window != nil:
		return fmt.Sprintf("lead_report_%s_to_%s.pdf",
			dataprocessing.DayKey(window.Start), dataprocessing.DayKey(window.End))
	default:
		return fmt.Sprintf("lead_report_%s.pdf", dataprocessing.DayKey(now))
	}
}
