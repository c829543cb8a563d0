// Package geocoding resolves free-text place queries to coordinates inside the coverage region.
package geocoding

import (
	"context"
	"errors"
)

// NotAvailableMessage is returned alongside an empty result set when no match lies inside coverage.
const NotAvailableMessage = "Location not available. This application currently supports routes within Greater London only."

// Limits applied to a search.
const (
	DefaultLimit = 5
	MaxLimit     = 10
)

// Predefined errors for geocoding operations.
var (
	// ErrProviderUnavailable is returned when the geocoding provider cannot be reached or fails.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")

	// ErrRateLimitExceeded is returned when the provider rejects the request for rate limiting.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrQueryRejected is returned when the provider refuses the query itself.
	ErrQueryRejected = errors.New("query rejected by geocoding provider")

	// ErrInvalidQuery is returned when the query is empty after trimming.
	ErrInvalidQuery = errors.New("invalid geocoding query")
)

// Place is a single geocoding match.
type Place struct {
	DisplayName string
	Lat         float64
	Lon         float64
}

// Result is the outcome of a search after coverage filtering.
type Result struct {
	Places []Place

	// Message is set when Places is empty.
	Message string
}

// Provider looks up places for a free-text query.
type Provider interface {
	// Name identifies the provider in errors and logs.
	Name() string

	// Search returns at most limit raw matches for query, in provider order.
	Search(ctx context.Context, query string, limit int) ([]Place, error)
}

// Error provides detailed error information from the geocoding provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
