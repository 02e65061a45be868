// Package payment implements the provider gateways over each vendor's
// HTTP API. Adapters own all unit conversion: Stripe speaks integer
// cents natively, Lemon Squeezy, Gumroad, and Paddle speak decimal
// dollars, and nothing outside this package ever sees the difference.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/repogate-inc/repogate/internal/application/payment/gateway"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

const (
	stripeAPIBaseURL = "https://api.stripe.com/v1"

	// stripeSignatureTolerance bounds how old a signed webhook may be.
	stripeSignatureTolerance = 5 * time.Minute

	requestTimeout  = 15 * time.Second
	maxResponseSize = 1 << 20
)

// Checkout metadata keys round-tripped through every provider that
// supports metadata.
const (
	metaKeyOrderNo      = "order_no"
	metaKeyRepositoryID = "repository_id"
	metaKeyUsername     = "github_username"
	metaKeyEmail        = "email"
)

// StripeGateway drives the Stripe API with form-encoded requests.
type StripeGateway struct {
	httpClient    *http.Client
	secretKey     string
	webhookSecret string
	baseURL       string
	logger        logger.Interface
}

var _ gateway.Gateway = (*StripeGateway)(nil)

// NewStripeGateway creates an uninitialized Stripe gateway. The webhook
// secret is platform configuration, not merchant credentials, so it
// arrives here rather than through Initialize.
func NewStripeGateway(webhookSecret string, logger logger.Interface) *StripeGateway {
	return &StripeGateway{
		httpClient:    &http.Client{Timeout: requestTimeout},
		webhookSecret: webhookSecret,
		baseURL:       stripeAPIBaseURL,
		logger:        logger,
	}
}

func (g *StripeGateway) Provider() merchant.Provider { return merchant.ProviderStripe }

func (g *StripeGateway) Initialize(creds merchant.Credentials) error {
	if creds.Provider() != merchant.ProviderStripe {
		return gateway.ErrInvalidCredentials
	}
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("%w: %v", gateway.ErrInvalidCredentials, err)
	}
	g.secretKey = creds.StripeSecretKey()
	return nil
}

func (g *StripeGateway) CreateProduct(ctx context.Context, details gateway.ProductDetails) (*gateway.CreateProductResult, error) {
	if g.secretKey == "" {
		return nil, gateway.ErrNotInitialized
	}

	form := url.Values{}
	form.Set("name", details.Name)
	if details.Description != "" {
		form.Set("description", details.Description)
	}
	if details.CoverURL != "" {
		form.Set("images[0]", details.CoverURL)
	}

	var product struct {
		ID string `json:"id"`
	}
	if err := g.postForm(ctx, "/products", form, &product); err != nil {
		return nil, err
	}

	priceID, err := g.createPrice(ctx, product.ID, details.Price)
	if err != nil {
		return nil, err
	}

	return &gateway.CreateProductResult{ProductID: product.ID, PriceID: priceID}, nil
}

func (g *StripeGateway) UpdateProduct(ctx context.Context, productID string, details gateway.ProductDetails) error {
	if g.secretKey == "" {
		return gateway.ErrNotInitialized
	}

	form := url.Values{}
	if details.Name != "" {
		form.Set("name", details.Name)
	}
	form.Set("description", details.Description)
	if details.CoverURL != "" {
		form.Set("images[0]", details.CoverURL)
	}
	return g.postForm(ctx, "/products/"+productID, form, nil)
}

// UpdatePrice creates a replacement price. Stripe prices are immutable,
// so the old one is simply left behind.
func (g *StripeGateway) UpdatePrice(ctx context.Context, productID string, price gateway.PriceDetails) (string, error) {
	if g.secretKey == "" {
		return "", gateway.ErrNotInitialized
	}
	return g.createPrice(ctx, productID, price)
}

func (g *StripeGateway) createPrice(ctx context.Context, productID string, price gateway.PriceDetails) (string, error) {
	form := url.Values{}
	form.Set("product", productID)
	form.Set("unit_amount", strconv.FormatInt(price.AmountCents, 10))
	form.Set("currency", strings.ToLower(orDefault(price.Currency, "usd")))
	if price.Recurring {
		form.Set("recurring[interval]", price.Interval)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := g.postForm(ctx, "/prices", form, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (g *StripeGateway) CreateCheckoutURL(ctx context.Context, req gateway.CheckoutRequest) (string, error) {
	if g.secretKey == "" {
		return "", gateway.ErrNotInitialized
	}

	mode := "payment"
	if req.Recurring {
		mode = "subscription"
	}

	form := url.Values{}
	form.Set("mode", mode)
	form.Set("line_items[0][price]", req.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("customer_email", req.Email)
	form.Set("metadata["+metaKeyOrderNo+"]", req.OrderNo)
	form.Set("metadata["+metaKeyRepositoryID+"]", strconv.FormatUint(uint64(req.RepositoryID), 10))
	form.Set("metadata["+metaKeyUsername+"]", req.GitHubUsername)
	form.Set("metadata["+metaKeyEmail+"]", req.Email)

	var session struct {
		URL string `json:"url"`
	}
	if err := g.postForm(ctx, "/checkout/sessions", form, &session); err != nil {
		return "", err
	}
	if session.URL == "" {
		return "", fmt.Errorf("stripe returned a session without a URL")
	}
	return session.URL, nil
}

// VerifyWebhook checks the Stripe-Signature header: an HMAC-SHA256 of
// "<timestamp>.<body>" under the endpoint secret. Fails closed when the
// secret is not configured.
func (g *StripeGateway) VerifyWebhook(req *http.Request, body []byte) error {
	if g.webhookSecret == "" {
		return fmt.Errorf("%w: webhook secret not configured", gateway.ErrSignatureVerification)
	}

	header := req.Header.Get("Stripe-Signature")
	if header == "" {
		return fmt.Errorf("%w: missing Stripe-Signature header", gateway.ErrSignatureVerification)
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			signatures = append(signatures, v)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return fmt.Errorf("%w: malformed Stripe-Signature header", gateway.ErrSignatureVerification)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid signature timestamp", gateway.ErrSignatureVerification)
	}
	if age := time.Since(time.Unix(ts, 0)); age > stripeSignatureTolerance || age < -stripeSignatureTolerance {
		return fmt.Errorf("%w: signature timestamp outside tolerance", gateway.ErrSignatureVerification)
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return gateway.ErrSignatureVerification
}

type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

func (g *StripeGateway) ParseWebhook(req *http.Request, body []byte) (*gateway.WebhookEvent, error) {
	var evt stripeEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("failed to decode stripe event: %w", err)
	}

	switch evt.Type {
	case "checkout.session.completed":
		var session struct {
			Customer      string            `json:"customer"`
			Subscription  string            `json:"subscription"`
			PaymentIntent string            `json:"payment_intent"`
			AmountTotal   int64             `json:"amount_total"`
			Currency      string            `json:"currency"`
			Metadata      map[string]string `json:"metadata"`
		}
		if err := json.Unmarshal(evt.Data.Object, &session); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		out := &gateway.WebhookEvent{
			Kind:            gateway.KindPaymentSucceeded,
			Provider:        merchant.ProviderStripe,
			OrderNo:         session.Metadata[metaKeyOrderNo],
			GitHubUsername:  session.Metadata[metaKeyUsername],
			Email:           session.Metadata[metaKeyEmail],
			CustomerID:      session.Customer,
			SubscriptionID:  session.Subscription,
			PaymentIntentID: session.PaymentIntent,
			AmountCents:     session.AmountTotal,
			Currency:        session.Currency,
		}
		out.RepositoryID = parseRepositoryID(session.Metadata[metaKeyRepositoryID])
		return out, nil

	case "customer.subscription.deleted":
		var sub struct {
			ID       string `json:"id"`
			Customer string `json:"customer"`
		}
		if err := json.Unmarshal(evt.Data.Object, &sub); err != nil {
			return nil, fmt.Errorf("failed to decode subscription: %w", err)
		}
		return &gateway.WebhookEvent{
			Kind:           gateway.KindSubscriptionCanceled,
			Provider:       merchant.ProviderStripe,
			SubscriptionID: sub.ID,
			CustomerID:     sub.Customer,
		}, nil

	case "invoice.payment_succeeded":
		var invoice struct {
			Subscription  string `json:"subscription"`
			BillingReason string `json:"billing_reason"`
			AmountPaid    int64  `json:"amount_paid"`
			Currency      string `json:"currency"`
		}
		if err := json.Unmarshal(evt.Data.Object, &invoice); err != nil {
			return nil, fmt.Errorf("failed to decode invoice: %w", err)
		}
		// Only renewal cycles matter here; the first charge is covered
		// by checkout.session.completed.
		if invoice.BillingReason != "subscription_cycle" {
			return &gateway.WebhookEvent{Kind: gateway.KindIgnored, Provider: merchant.ProviderStripe}, nil
		}
		return &gateway.WebhookEvent{
			Kind:           gateway.KindRenewal,
			Provider:       merchant.ProviderStripe,
			SubscriptionID: invoice.Subscription,
			AmountCents:    invoice.AmountPaid,
			Currency:       invoice.Currency,
		}, nil

	case "invoice.payment_failed":
		var invoice struct {
			Subscription string `json:"subscription"`
			AmountDue    int64  `json:"amount_due"`
		}
		if err := json.Unmarshal(evt.Data.Object, &invoice); err != nil {
			return nil, fmt.Errorf("failed to decode invoice: %w", err)
		}
		return &gateway.WebhookEvent{
			Kind:           gateway.KindPaymentFailed,
			Provider:       merchant.ProviderStripe,
			SubscriptionID: invoice.Subscription,
			AmountCents:    invoice.AmountDue,
			Detail:         "invoice payment failed",
		}, nil
	}

	return &gateway.WebhookEvent{Kind: gateway.KindIgnored, Provider: merchant.ProviderStripe}, nil
}

func (g *StripeGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	if g.secretKey == "" {
		return gateway.ErrNotInitialized
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, g.baseURL+"/subscriptions/"+subscriptionID, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(g.secretKey, "")
	return g.do(req, "cancel_subscription", nil)
}

func (g *StripeGateway) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(g.secretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return g.do(req, path, out)
}

func (g *StripeGateway) do(req *http.Request, operation string, out interface{}) error {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read stripe response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &gateway.APIError{
			Provider:   string(merchant.ProviderStripe),
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode stripe response: %w", err)
	}
	return nil
}

func parseRepositoryID(s string) uint {
	if s == "" {
		return 0
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
