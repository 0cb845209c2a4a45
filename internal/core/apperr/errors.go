// Package apperr defines the error taxonomy shared by the ingestion and
// retrieval pipelines and its mapping onto HTTP statuses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidInput covers bad or missing files and malformed requests.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat is returned for extensions other than .pdf/.txt.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported file type, only PDF and TXT are allowed", ErrInvalidInput)

	// ErrInvalidChunkingConfig rejects overlap >= size before the window loop
	// can stall.
	ErrInvalidChunkingConfig = fmt.Errorf("%w: chunk overlap must be smaller than chunk size", ErrInvalidInput)

	// ErrNotFound means the subject or note is absent or not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrEmptyDocument means chunking produced nothing; nothing was persisted.
	ErrEmptyDocument = errors.New("could not extract any text from the file")

	// ErrExtractionFailed wraps extraction-library errors so callers never see
	// the underlying library's error types.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrIngestionFailed means chunk persistence failed after extraction.
	ErrIngestionFailed = errors.New("ingestion failed")

	// ErrSearchFailed means the chunk store query itself errored.
	ErrSearchFailed = errors.New("search failed")
)

// ExtractionFailed builds an ErrExtractionFailed with a reason.
func ExtractionFailed(reason string) error {
	return fmt.Errorf("%w: %s", ErrExtractionFailed, reason)
}

// Status maps a pipeline error onto an HTTP status code. Validation errors are
// 4xx, everything else collapses to 500 so internals never leak to clients.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyDocument), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for err. 5xx errors get a generic
// body; 4xx errors keep their human-readable text.
func Message(err error) string {
	if Status(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
