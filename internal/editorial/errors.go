package editorial

import (
	"errors"
	"fmt"
)

// Resolution failures. Callers never see these; they are logged, counted and
// turned into an empty result.
var (
	// ErrNotFound means no candidate matched the query.
	ErrNotFound = errors.New("no matching review")
	// ErrUnverifiable means the candidate page names a different artist.
	ErrUnverifiable = errors.New("artist could not be verified")
	// ErrNoExtractableData means the page held neither a rating nor an excerpt.
	ErrNoExtractableData = errors.New("no rating or excerpt on page")
	// ErrTransport covers network failures and non-200 responses.
	ErrTransport = errors.New("transport failure")
	// ErrMalformedData covers unparseable JSON, non-UTF-8 bodies and bad ratings.
	ErrMalformedData = errors.New("malformed data")
)

// TransportError describes a failed fetch.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is matches ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// Outcome labels err for logs and metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "found"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnverifiable):
		return "unverifiable"
	case errors.Is(err, ErrNoExtractableData):
		return "no_data"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrMalformedData):
		return "malformed"
	default:
		return "error"
	}
}
