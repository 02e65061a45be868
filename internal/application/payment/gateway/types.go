package gateway

import "github.com/repogate-inc/repogate/internal/domain/merchant"

// ProductDetails describes a sellable repository to a provider.
type ProductDetails struct {
	Name        string
	Description string
	CoverURL    string
	Price       PriceDetails
}

// PriceDetails is a price in canonical form. AmountCents is always the
// smallest currency unit; Recurring prices carry a billing interval.
type PriceDetails struct {
	AmountCents int64
	Currency    string
	Recurring   bool
	// Interval is "month" or "year" when Recurring is true.
	Interval string
}

// CreateProductResult carries the provider references created for a
// product. PriceID equals ProductID on providers without a separate
// price object.
type CreateProductResult struct {
	ProductID string
	PriceID   string
}

// CheckoutRequest is everything an adapter needs to open a hosted
// checkout session for one purchase.
type CheckoutRequest struct {
	OrderNo        string
	ProductID      string
	PriceID        string
	RepositoryID   uint
	RepositorySlug string
	Email          string
	GitHubUsername string
	Recurring      bool
	SuccessURL     string
	CancelURL      string
}

// EventKind classifies a normalized webhook event.
type EventKind string

const (
	KindPaymentSucceeded     EventKind = "payment_succeeded"
	KindSubscriptionCanceled EventKind = "subscription_canceled"
	KindRenewal              EventKind = "renewal"
	KindPaymentFailed        EventKind = "payment_failed"
	// KindIgnored marks payloads the provider sends but the engine
	// takes no action on; handlers still acknowledge them.
	KindIgnored EventKind = "ignored"
)

// WebhookEvent is the canonical form of a provider webhook. Identity
// fields are best effort: the engine falls back from OrderNo to the
// (repository, username) pair when a provider cannot round-trip the
// purchase reference.
type WebhookEvent struct {
	Kind     EventKind
	Provider merchant.Provider

	// OrderNo is the purchase reference recovered from checkout
	// metadata, empty when the provider dropped it.
	OrderNo        string
	RepositoryID   uint
	GitHubUsername string
	Email          string

	CustomerID      string
	SubscriptionID  string
	PaymentIntentID string

	AmountCents int64
	Currency    string

	// Recurring marks a payment-succeeded event the provider fires on
	// every billing cycle rather than only the first charge. When the
	// matched purchase already holds access, such an event is a
	// renewal, not a redelivery.
	Recurring bool

	// Description of why the event carries its kind, written to audit
	// details (e.g. a refund flag or failure reason).
	Detail string
}
