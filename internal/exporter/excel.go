package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"leadpulse/pkg/contracts/domain"
)

const leadsSheetName = "Leads"

// WriteXLSX writes the leads as a single-sheet workbook with a styled
// header row and the same flat projection the CSV export uses.
func WriteXLSX(w io.Writer, leads []domain.Lead, preferredOrder []string) error {
	table := Flatten(leads, preferredOrder)

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(leadsSheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	header := make([]interface{}, len(table.Columns))
	for i, column := range table.Columns {
		header[i] = column
	}
	if err := f.SetSheetRow(leadsSheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if len(table.Columns) > 0 {
		lastCell, err := excelize.CoordinatesToCellName(len(table.Columns), 1)
		if err != nil {
			return fmt.Errorf("resolve header range: %w", err)
		}
		if err := f.SetCellStyle(leadsSheetName, "A1", lastCell, headerStyle); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}

	for i, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("resolve row %d: %w", i, err)
		}
		if err := f.SetSheetRow(leadsSheetName, start, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
