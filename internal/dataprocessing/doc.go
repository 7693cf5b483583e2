// Package dataprocessing implements the dashboard's data transformation
// pipeline: raw spreadsheet rows are normalized into typed leads, filter
// criteria are resolved and applied, and aggregate views are computed for
// chart rendering and exports.
//
// # Architecture
//
// The package is organized into four components:
//
// 1. Dates: parsing and formatting of the sheet's day/month/year dates
// 2. Normalizer: raw string rows → typed domain.Lead records
// 3. Filter: date window resolution and compositional filtering
// 4. Analytics: grouped counts, trends, histograms and summary statistics
//
// # Data Flow
//
//	RawRows → Normalize → []Lead → Apply(criteria) → filtered subset → aggregates
//
// # Error Handling
//
// Normalization and filtering are pure and total: malformed cells degrade to
// absent fields rather than errors, and every aggregate returns an
// empty/neutral result on empty input. Only the I/O boundary (fetch, export)
// can fail.
package dataprocessing
