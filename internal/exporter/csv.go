package exporter

import (
	"fmt"
	"io"
	"strings"

	"leadpulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes the leads as spreadsheet-compatible CSV: UTF-8 BOM, a
// header row, then one row per lead. Every field is quoted regardless of
// content, embedded quotes are doubled, and embedded newlines are replaced
// with spaces so each record stays on one physical line.
//
// encoding/csv would only quote fields that need it, so the quoting is done
// by hand here.
func WriteCSV(w io.Writer, leads []domain.Lead, preferredOrder []string) error {
	table := Flatten(leads, preferredOrder)

	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}
	if err := writeCSVLine(w, table.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range table.Rows {
		if err := writeCSVLine(w, row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return nil
}

func writeCSVLine(w io.Writer, fields []string) error {
	var sb strings.Builder
	for i, field := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(escapeCSVField(field))
		sb.WriteByte('"')
	}
	sb.WriteString("\r\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func escapeCSVField(field string) string {
	field = strings.ReplaceAll(field, "\r\n", " ")
	field = strings.ReplaceAll(field, "\n", " ")
	field = strings.ReplaceAll(field, "\r", " ")
	return strings.ReplaceAll(field, `"`, `""`)
}
