// Package services holds the application services behind the HTTP layer.
//
// DataService owns the normalized lead snapshot: it fetches raw rows from
// the spreadsheet boundary, normalizes them, and serves filtered views and
// aggregates to handlers and exporters. Every read works on the snapshot
// captured at invocation time, so an in-flight export never observes a
// refresh that completes while it runs.
package services
