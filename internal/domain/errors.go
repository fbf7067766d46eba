// Package domain holds the value types shared by the fintrack modules:
// calendar dates, decimal rounding rules, enumerations and the error taxonomy.
package domain

import (
	"context"
	"errors"
	"fmt"
)

// Failure classes used across providers and refresh runs.
var (
	// ErrRateLimited means the provider asked us to slow down (HTTP 429). Retryable.
	ErrRateLimited = errors.New("rate limited")
	// ErrTransientProvider is a retryable transport or decoding failure.
	ErrTransientProvider = errors.New("transient provider error")
	// ErrConfiguration is a missing credential or setting. Never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrMalformedData is an unparseable response or record.
	ErrMalformedData = errors.New("malformed data")
	// ErrDataUnavailable means every source was exhausted for one record.
	ErrDataUnavailable = errors.New("data unavailable")
)

// Record-level failures surfaced by services.
var (
	// ErrInvalidInput means a record failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound means no record has the requested ID.
	ErrNotFound = errors.New("not found")
)

// ProviderError describes a failed call to an external provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err with provider context.
func NewProviderError(provider string, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, StatusCode: status, Err: err}
}

// IsRetryable reports whether err belongs to a retryable class.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransientProvider)
}

// Outcome labels used in logs and metrics.
const (
	OutcomeSuccess       = "success"
	OutcomeRateLimited   = "rate_limited"
	OutcomeTransient     = "transient"
	OutcomeConfiguration = "configuration"
	OutcomeMalformed     = "malformed"
	OutcomeUnavailable   = "unavailable"
	OutcomeCancelled     = "cancelled"
	OutcomeError         = "error"
)

// Classify maps err onto an outcome label. A nil error is a success.
func Classify(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	case errors.Is(err, ErrConfiguration):
		return OutcomeConfiguration
	case errors.Is(err, ErrRateLimited):
		return OutcomeRateLimited
	case errors.Is(err, ErrTransientProvider):
		return OutcomeTransient
	case errors.Is(err, ErrMalformedData):
		return OutcomeMalformed
	case errors.Is(err, ErrDataUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeError
	}
}
