// Package exporter turns a filtered lead snapshot into downloadable
// artifacts: a flat CSV, an XLSX workbook, and a paginated report document
// combining KPI figures with captured chart images.
package exporter
