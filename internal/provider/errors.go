package provider

import (
	"errors"
	"fmt"
)

// ErrProviderUnavailable indicates the synthesis provider is not reachable.
var ErrProviderUnavailable = errors.New("provider unavailable")

// ErrProviderTimeout indicates the provider took too long to respond.
var ErrProviderTimeout = errors.New("provider timeout")

// ProviderError represents an error returned by the synthesis provider.
// Message carries the provider's own text verbatim when available.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
}

// IsProviderError checks if an error is a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
