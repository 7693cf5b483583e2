// Package sheets fetches raw lead rows from the backing Google spreadsheet.
// It is the dashboard's only upstream data source: a flat table whose first
// row names the columns.
package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"leadpulse/internal/config"
	apierrors "leadpulse/internal/errors"
	"leadpulse/pkg/contracts/domain"
)

// Table is one full read of the backing sheet: the header row in sheet
// order plus every data row mapped by header name.
type Table struct {
	Headers []string
	Rows    []domain.RawRow
}

// Client reads the configured spreadsheet through the Sheets v4 API.
type Client struct {
	service       *sheets.Service
	spreadsheetID string
	readRange     string
	logger        *slog.Logger
}

// NewClient builds a Sheets client. Credentials resolve in order: inline
// service-account JSON, key file path, application default credentials.
func NewClient(ctx context.Context, cfg config.SheetsConfig, logger *slog.Logger) (*Client, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsReadonlyScope))

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		readRange:     cfg.ReadRange,
		logger:        logger.With(slog.String("component", "sheets_client")),
	}, nil
}

// FetchTable reads the whole table. The first worksheet of the spreadsheet
// is read; its first row determines the column names and every following
// row is mapped positionally, short rows padded with empty strings. An
// empty table yields an empty row set, not an error. Fetch failures come
// back as a retryable SourceUnavailableError.
func (c *Client) FetchTable(ctx context.Context) (*Table, error) {
	readRange := c.readRange
	if sheetName := c.firstSheetName(ctx); sheetName != "" {
		readRange = fmt.Sprintf("%s!%s", sheetName, c.readRange)
	}

	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		c.logger.ErrorContext(ctx, "sheet fetch failed",
			slog.String("spreadsheet_id", c.spreadsheetID),
			slog.String("range", readRange),
			slog.String("error", err.Error()))
		return nil, apierrors.NewSourceUnavailable("failed to fetch sheet data", err)
	}

	table := MapValues(resp.Values)
	c.logger.InfoContext(ctx, "sheet fetched",
		slog.String("spreadsheet_id", c.spreadsheetID),
		slog.Int("row_count", len(table.Rows)))
	return table, nil
}

// firstSheetName resolves the first worksheet's title, falling back to the
// range-only form (which the API resolves to the first sheet) on failure.
func (c *Client) firstSheetName(ctx context.Context) string {
	meta, err := c.service.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil || len(meta.Sheets) == 0 {
		c.logger.WarnContext(ctx, "could not resolve sheet metadata, using default range",
			slog.String("spreadsheet_id", c.spreadsheetID))
		return ""
	}
	return meta.Sheets[0].Properties.Title
}

// MapValues converts the API's positional value grid into header-keyed raw
// rows. The first row is the header row; rows shorter than it are padded
// with "".
func MapValues(values [][]interface{}) *Table {
	table := &Table{Rows: []domain.RawRow{}}
	if len(values) == 0 {
		return table
	}

	table.Headers = make([]string, len(values[0]))
	for i, cell := range values[0] {
		table.Headers[i] = fmt.Sprint(cell)
	}

	for _, cells := range values[1:] {
		row := make(domain.RawRow, len(table.Headers))
		for i, header := range table.Headers {
			if i < len(cells) {
				row[header] = fmt.Sprint(cells[i])
			} else {
				row[header] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
