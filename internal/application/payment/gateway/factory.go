package gateway

import "github.com/repogate-inc/repogate/internal/domain/merchant"

// Factory constructs adapters. Implemented by infrastructure/payment;
// use cases depend on this interface so tests can substitute fakes.
type Factory interface {
	// New returns an uninitialized gateway for the provider, or
	// ErrUnsupportedProvider.
	New(provider merchant.Provider) (Gateway, error)

	// NewInitialized returns a gateway bound to the given credentials.
	NewInitialized(provider merchant.Provider, creds merchant.Credentials) (Gateway, error)
}
