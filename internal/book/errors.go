package book

import (
	"errors"
	"fmt"
)

// Ingestion failures, ordered roughly by how early they are detected.
var (
	// ErrUnsupportedFormat rejects extensions outside the allow-list before
	// any parsing attempt.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrPlannedFormat marks extensions that are recognized but not yet
	// implemented; callers show a distinct "coming soon" message.
	ErrPlannedFormat = errors.New("format not yet supported")

	// ErrCorrupt reports a structural parse failure.
	ErrCorrupt = errors.New("file is corrupted or unreadable")

	// ErrProtected reports an encrypted document; passwords are unsupported.
	ErrProtected = errors.New("file is password-protected")

	// ErrBackendUnavailable reports that remote parsing could not complete.
	ErrBackendUnavailable = errors.New("parsing backend unavailable")
)

// IngestError attaches the offending format to one of the sentinel failures.
type IngestError struct {
	Format string
	Err    error
}

func (e *IngestError) Error() string {
	if e.Format == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Format, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

func ingestErr(format string, sentinel error, cause error) error {
	if cause != nil {
		return &IngestError{Format: format, Err: fmt.Errorf("%w: %v", sentinel, cause)}
	}
	return &IngestError{Format: format, Err: sentinel}
}
