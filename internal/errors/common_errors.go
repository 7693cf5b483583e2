package errors

import (
	"errors"
	"fmt"
)

// ErrEmptyExport rejects an export over zero filtered records before any
// document work begins. Not a fatal condition; surfaced to the user as a
// notice.
var ErrEmptyExport = errors.New("no records to export; adjust the active filters")

// SourceUnavailableError signals that the raw-row fetch failed. It is
// retryable: the periodic refresh cycle will try again, and the API surfaces
// it with a message and optional details so the UI can offer a manual retry.
type SourceUnavailableError struct {
	Message string
	Details string
	Err     error
}

func (e *SourceUnavailableError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// NewSourceUnavailable wraps a fetch failure.
func NewSourceUnavailable(message string, err error) *SourceUnavailableError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &SourceUnavailableError{Message: message, Details: details, Err: err}
}

// IsSourceUnavailable reports whether err is a fetch failure.
func IsSourceUnavailable(err error) bool {
	var target *SourceUnavailableError
	return errors.As(err, &target)
}

// ChartCaptureError signals that a single chart image failed to render into
// an export document. The composer logs it and continues with the remaining
// blocks; it never aborts the whole export.
type ChartCaptureError struct {
	ChartID string
	Err     error
}

func (e *ChartCaptureError) Error() string {
	return fmt.Sprintf("chart capture failed for %q: %v", e.ChartID, e.Err)
}

func (e *ChartCaptureError) Unwrap() error {
	return e.Err
}
