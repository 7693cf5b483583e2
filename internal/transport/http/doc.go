// Package http exposes the dashboard API: filtered lead views, KPI and
// chart aggregates, manual refresh, and the CSV/XLSX/report exports.
// Errors are rendered as RFC 7807 problem details.
package http
