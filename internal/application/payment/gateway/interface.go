// Package gateway defines the contract every payment provider adapter
// implements and the canonical vocabulary the reconciliation engine
// consumes. Adapters normalize provider payloads at this boundary; the
// rest of the system never sees provider-specific field names or units.
package gateway

import (
	"context"
	"net/http"

	"github.com/repogate-inc/repogate/internal/domain/merchant"
)

// Gateway is the provider-neutral payment integration surface.
//
// All monetary amounts crossing this interface are integer cents.
// Providers whose APIs speak decimal major units convert inside their
// adapter, never in calling code.
type Gateway interface {
	Provider() merchant.Provider

	// Initialize binds the gateway to a seller's credentials. Must be
	// called before any remote operation; credentials failing their
	// structural check return ErrInvalidCredentials.
	Initialize(creds merchant.Credentials) error

	// CreateProduct creates the remote product plus its initial price.
	CreateProduct(ctx context.Context, details ProductDetails) (*CreateProductResult, error)

	// UpdateProduct updates name/description on the remote product.
	// Providers without a product update API return ErrUnsupportedOperation.
	UpdateProduct(ctx context.Context, productID string, details ProductDetails) error

	// UpdatePrice points the product at a new price, returning the new
	// remote price reference. Providers with immutable or absent price
	// objects either mutate in place (returning productID) or return
	// ErrUnsupportedOperation.
	UpdatePrice(ctx context.Context, productID string, price PriceDetails) (string, error)

	// CreateCheckoutURL builds a hosted checkout session carrying the
	// buyer identity and purchase reference so the webhook can
	// reconcile it later.
	CreateCheckoutURL(ctx context.Context, req CheckoutRequest) (string, error)

	// VerifyWebhook authenticates an incoming webhook request. body is
	// the raw request body as received; verification failure returns
	// ErrSignatureVerification.
	VerifyWebhook(req *http.Request, body []byte) error

	// ParseWebhook normalizes a verified webhook payload into a
	// canonical event. Payloads the provider sends but the engine does
	// not act on come back with KindIgnored rather than an error.
	ParseWebhook(req *http.Request, body []byte) (*WebhookEvent, error)

	// CancelSubscription cancels the remote subscription. Providers
	// without a cancellation API return ErrUnsupportedOperation.
	CancelSubscription(ctx context.Context, subscriptionID string) error
}
