package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	apierrors "leadpulse/internal/errors"
)

// ChartSpec names one dashboard chart to capture: the DOM id of its
// container and the caption the report shows above it.
type ChartSpec struct {
	ID      string
	Caption string
}

// DefaultCharts is the dashboard's chart set in display order.
var DefaultCharts = []ChartSpec{
	{ID: "status-distribution-chart", Caption: "Connection status distribution"},
	{ID: "daily-trend-chart", Caption: "Daily trend by status"},
	{ID: "fit-score-histogram", Caption: "Fit score distribution"},
	{ID: "fit-score-boxplot", Caption: "Fit score quartiles"},
}

// ChartCapturer screenshots chart elements from the rendered dashboard
// page with a headless browser.
type ChartCapturer struct {
	baseURL string
	wait    time.Duration
	logger  *slog.Logger
}

// NewChartCapturer creates a capturer pointed at the dashboard chart page.
// wait is how long to let the page render before the first screenshot.
func NewChartCapturer(baseURL string, wait time.Duration, logger *slog.Logger) *ChartCapturer {
	if wait <= 0 {
		wait = 2 * time.Second
	}
	return &ChartCapturer{
		baseURL: baseURL,
		wait:    wait,
		logger:  logger.With(slog.String("component", "chart_capturer")),
	}
}

// Capture renders the page once and screenshots each requested chart. A
// chart that fails to capture is logged and omitted from the result; the
// report is composed from whatever captured successfully.
func (c *ChartCapturer) Capture(ctx context.Context, charts []ChartSpec) ([]ChartImage, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(c.baseURL),
		chromedp.Sleep(c.wait),
	); err != nil {
		return nil, fmt.Errorf("render chart page %s: %w", c.baseURL, err)
	}

	images := make([]ChartImage, 0, len(charts))
	for _, chart := range charts {
		var png []byte
		err := chromedp.Run(browserCtx,
			chromedp.Screenshot("#"+chart.ID, &png, chromedp.NodeVisible),
		)
		if err != nil {
			captureErr := &apierrors.ChartCaptureError{ChartID: chart.ID, Err: err}
			c.logger.WarnContext(ctx, "chart capture failed",
				slog.String("chart_id", chart.ID),
				slog.String("error", captureErr.Error()))
			continue
		}
		images = append(images, ChartImage{ID: chart.ID, Caption: chart.Caption, PNG: png})
	}

	c.logger.InfoContext(ctx, "chart capture finished",
		slog.Int("requested", len(charts)),
		slog.Int("captured", len(images)))
	return images, nil
}
