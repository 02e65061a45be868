package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned by Initialize when the supplied
	// credentials fail their structural check or belong to a different
	// provider.
	ErrInvalidCredentials = errors.New("invalid provider credentials")

	// ErrUnsupportedProvider is returned by the factory for an unknown
	// provider discriminator.
	ErrUnsupportedProvider = errors.New("unsupported payment provider")

	// ErrUnsupportedOperation is returned for operations a provider's
	// API does not offer.
	ErrUnsupportedOperation = errors.New("operation not supported by provider")

	// ErrSignatureVerification is returned when webhook authentication
	// fails. Requests failing this way must be rejected, never
	// acknowledged.
	ErrSignatureVerification = errors.New("webhook signature verification failed")

	// ErrNotInitialized is returned by remote operations invoked before
	// Initialize.
	ErrNotInitialized = errors.New("gateway not initialized")
)

// APIError wraps a non-2xx response from a provider API.
type APIError struct {
	Provider   string
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Provider, e.Operation, e.StatusCode, e.Body)
}
