// leadreport fetches the lead sheet once and writes the filtered CSV and
// XLSX exports without starting the web server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"leadpulse/internal/config"
	"leadpulse/internal/dataprocessing"
	"leadpulse/internal/exporter"
	"leadpulse/internal/infrastructure"
	"leadpulse/internal/sheets"
	"leadpulse/pkg/contracts/domain"
)

func main() {
	outputDir := flag.String("out", "", "output directory (defaults to the configured export dir)")
	period := flag.String("period", "all", "period selector: all, daily, weekly or monthly")
	anchorStr := flag.String("date", "", "anchor date for daily/weekly/monthly (YYYY-MM-DD, defaults to today)")
	fromStr := flag.String("from", "", "explicit range start (YYYY-MM-DD)")
	toStr := flag.String("to", "", "explicit range end (YYYY-MM-DD)")
	status := flag.String("status", domain.StatusAll, "connection status filter, All for no constraint")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	periodType := domain.PeriodType(*period)
	if !periodType.Valid() {
		logger.Error("Unknown period selector", "period", *period)
		os.Exit(1)
	}

	anchor := time.Now()
	if *anchorStr != "" {
		if anchor, err = time.ParseInLocation("2006-01-02", *anchorStr, time.Local); err != nil {
			logger.Error("Invalid anchor date", "date", *anchorStr)
			os.Exit(1)
		}
	}

	var explicit *domain.DateWindow
	if *fromStr != "" || *toStr != "" {
		if *fromStr == "" || *toStr == "" {
			logger.Error("from and to must be supplied together")
			os.Exit(1)
		}
		from, fromErr := time.ParseInLocation("2006-01-02", *fromStr, time.Local)
		to, toErr := time.ParseInLocation("2006-01-02", *toStr, time.Local)
		if fromErr != nil || toErr != nil || to.Before(from) {
			logger.Error("Invalid explicit range", "from", *fromStr, "to", *toStr)
			os.Exit(1)
		}
		explicit = &domain.DateWindow{Start: from, End: to}
	}

	if *outputDir == "" {
		*outputDir = cfg.Export.Dir
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		logger.Error("Failed to create output directory", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	client, err := sheets.NewClient(ctx, cfg.Sheets, logger)
	if err != nil {
		logger.Error("Failed to create sheets client", "error", err)
		os.Exit(1)
	}

	logger.Info("Fetching lead sheet", "spreadsheet_id", cfg.Sheets.SpreadsheetID)
	table, err := client.FetchTable(ctx)
	if err != nil {
		logger.Error("Fetch failed", "error", err)
		os.Exit(1)
	}

	leads := dataprocessing.Normalize(table.Rows)
	criteria := domain.FilterCriteria{
		PeriodType:       periodType,
		Window:           dataprocessing.ResolveWindow(periodType, anchor, explicit),
		ConnectionStatus: *status,
	}
	filtered := dataprocessing.Apply(leads, criteria)
	if len(filtered) == 0 {
		logger.Error("No records match the active filters, nothing to export")
		os.Exit(1)
	}

	stamp := time.Now().Format("2006-01-02")
	csvPath := filepath.Join(*outputDir, fmt.Sprintf("leads_%s.csv", stamp))
	if err := writeFile(csvPath, func(f *os.File) error {
		return exporter.WriteCSV(f, filtered, table.Headers)
	}); err != nil {
		logger.Error("CSV export failed", "error", err)
		os.Exit(1)
	}

	xlsxPath := filepath.Join(*outputDir, fmt.Sprintf("leads_%s.xlsx", stamp))
	if err := writeFile(xlsxPath, func(f *os.File) error {
		return exporter.WriteXLSX(f, filtered, table.Headers)
	}); err != nil {
		logger.Error("XLSX export failed", "error", err)
		os.Exit(1)
	}

	kpis := dataprocessing.ComputeKPIs(filtered)
	logger.Info("Report written",
		"csv", csvPath,
		"xlsx", xlsxPath,
		"records", kpis.TotalRecords,
		"with_fit_score", kpis.TotalWithFitScore,
		"invited", kpis.Invited,
		"accepted", kpis.Accepted,
		"pending", kpis.PendingLeads)
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
