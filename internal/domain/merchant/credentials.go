// Package merchant models per-merchant payment provider configuration.
// Credentials are a tagged union keyed by provider: each variant carries
// only its own required fields and can only be built through the typed
// constructors, so an incomplete combination is unrepresentable after
// construction.
package merchant

import (
	"errors"
	"fmt"
)

// ErrIncompleteCredentials is returned when a constructor is given an
// empty required field.
var ErrIncompleteCredentials = errors.New("incomplete provider credentials")

// Credentials holds decrypted provider credentials for one merchant.
// Values are decrypted only at point of use and must never be logged.
type Credentials struct {
	provider Provider

	// Stripe
	stripeSecretKey      string
	stripePublishableKey string

	// Lemon Squeezy
	lemonSqueezyAPIKey  string
	lemonSqueezyStoreID string

	// Gumroad
	gumroadAccessToken string

	// Paddle
	paddleVendorID string
	paddleAPIKey   string
}

func NewStripeCredentials(secretKey, publishableKey string) (Credentials, error) {
	if secretKey == "" || publishableKey == "" {
		return Credentials{}, fmt.Errorf("%w: stripe secret key and publishable key are required", ErrIncompleteCredentials)
	}
	return Credentials{
		provider:             ProviderStripe,
		stripeSecretKey:      secretKey,
		stripePublishableKey: publishableKey,
	}, nil
}

func NewLemonSqueezyCredentials(apiKey, storeID string) (Credentials, error) {
	if apiKey == "" || storeID == "" {
		return Credentials{}, fmt.Errorf("%w: lemon squeezy api key and store id are required", ErrIncompleteCredentials)
	}
	return Credentials{
		provider:            ProviderLemonSqueezy,
		lemonSqueezyAPIKey:  apiKey,
		lemonSqueezyStoreID: storeID,
	}, nil
}

func NewGumroadCredentials(accessToken string) (Credentials, error) {
	if accessToken == "" {
		return Credentials{}, fmt.Errorf("%w: gumroad access token is required", ErrIncompleteCredentials)
	}
	return Credentials{
		provider:           ProviderGumroad,
		gumroadAccessToken: accessToken,
	}, nil
}

func NewPaddleCredentials(vendorID, apiKey string) (Credentials, error) {
	if vendorID == "" || apiKey == "" {
		return Credentials{}, fmt.Errorf("%w: paddle vendor id and api key are required", ErrIncompleteCredentials)
	}
	return Credentials{
		provider:       ProviderPaddle,
		paddleVendorID: vendorID,
		paddleAPIKey:   apiKey,
	}, nil
}

func (c Credentials) Provider() Provider {
	return c.provider
}

// IsZero reports whether no credentials have been set.
func (c Credentials) IsZero() bool {
	return c.provider == ""
}

// Validate re-checks provider-specific required-field completeness without
// any network call. Used to gate checkout eligibility before a remote call
// that would otherwise fail mid-flow.
func (c Credentials) Validate() error {
	switch c.provider {
	case ProviderStripe:
		if c.stripeSecretKey == "" || c.stripePublishableKey == "" {
			return ErrIncompleteCredentials
		}
	case ProviderLemonSqueezy:
		if c.lemonSqueezyAPIKey == "" || c.lemonSqueezyStoreID == "" {
			return ErrIncompleteCredentials
		}
	case ProviderGumroad:
		if c.gumroadAccessToken == "" {
			return ErrIncompleteCredentials
		}
	case ProviderPaddle:
		if c.paddleVendorID == "" || c.paddleAPIKey == "" {
			return ErrIncompleteCredentials
		}
	default:
		return fmt.Errorf("unknown payment provider: %s", c.provider)
	}
	return nil
}

func (c Credentials) StripeSecretKey() string      { return c.stripeSecretKey }
func (c Credentials) StripePublishableKey() string { return c.stripePublishableKey }
func (c Credentials) LemonSqueezyAPIKey() string   { return c.lemonSqueezyAPIKey }
func (c Credentials) LemonSqueezyStoreID() string  { return c.lemonSqueezyStoreID }
func (c Credentials) GumroadAccessToken() string   { return c.gumroadAccessToken }
func (c Credentials) PaddleVendorID() string       { return c.paddleVendorID }
func (c Credentials) PaddleAPIKey() string         { return c.paddleAPIKey }
