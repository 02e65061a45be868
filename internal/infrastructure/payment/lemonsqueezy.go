package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/repogate-inc/repogate/internal/application/payment/gateway"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

const lemonSqueezyAPIBaseURL = "https://api.lemonsqueezy.com/v1"

// LemonSqueezyGateway drives the Lemon Squeezy JSON:API. Prices on the
// wire are decimal dollars; conversion to and from cents happens here.
type LemonSqueezyGateway struct {
	httpClient    *http.Client
	apiKey        string
	storeID       string
	signingSecret string
	baseURL       string
	logger        logger.Interface
}

var _ gateway.Gateway = (*LemonSqueezyGateway)(nil)

// NewLemonSqueezyGateway creates an uninitialized gateway. signingSecret
// enables X-Signature verification; when empty, webhooks are accepted
// unverified and reconciled purely against existing pending purchases.
func NewLemonSqueezyGateway(signingSecret string, logger logger.Interface) *LemonSqueezyGateway {
	return &LemonSqueezyGateway{
		httpClient:    &http.Client{Timeout: requestTimeout},
		signingSecret: signingSecret,
		baseURL:       lemonSqueezyAPIBaseURL,
		logger:        logger,
	}
}

func (g *LemonSqueezyGateway) Provider() merchant.Provider { return merchant.ProviderLemonSqueezy }

func (g *LemonSqueezyGateway) Initialize(creds merchant.Credentials) error {
	if creds.Provider() != merchant.ProviderLemonSqueezy {
		return gateway.ErrInvalidCredentials
	}
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("%w: %v", gateway.ErrInvalidCredentials, err)
	}
	g.apiKey = creds.LemonSqueezyAPIKey()
	g.storeID = creds.LemonSqueezyStoreID()
	return nil
}

type lsResource struct {
	Data struct {
		ID         string          `json:"id"`
		Attributes json.RawMessage `json:"attributes"`
	} `json:"data"`
}

func (g *LemonSqueezyGateway) CreateProduct(ctx context.Context, details gateway.ProductDetails) (*gateway.CreateProductResult, error) {
	if g.apiKey == "" {
		return nil, gateway.ErrNotInitialized
	}

	storeID, err := strconv.Atoi(g.storeID)
	if err != nil {
		return nil, fmt.Errorf("%w: store ID must be numeric", gateway.ErrInvalidCredentials)
	}

	var product lsResource
	err = g.request(ctx, http.MethodPost, "/products", map[string]interface{}{
		"data": map[string]interface{}{
			"type": "products",
			"attributes": map[string]interface{}{
				"store_id":    storeID,
				"name":        details.Name,
				"description": details.Description,
			},
		},
	}, &product)
	if err != nil {
		return nil, err
	}

	variantID, err := g.createVariant(ctx, product.Data.ID, "Default", details.Price)
	if err != nil {
		return nil, err
	}

	return &gateway.CreateProductResult{ProductID: product.Data.ID, PriceID: variantID}, nil
}

func (g *LemonSqueezyGateway) UpdateProduct(ctx context.Context, productID string, details gateway.ProductDetails) error {
	if g.apiKey == "" {
		return gateway.ErrNotInitialized
	}
	return g.request(ctx, http.MethodPatch, "/products/"+productID, map[string]interface{}{
		"data": map[string]interface{}{
			"type": "products",
			"id":   productID,
			"attributes": map[string]interface{}{
				"name":        details.Name,
				"description": details.Description,
			},
		},
	}, nil)
}

// UpdatePrice creates a fresh variant; existing variants keep serving old
// checkouts.
func (g *LemonSqueezyGateway) UpdatePrice(ctx context.Context, productID string, price gateway.PriceDetails) (string, error) {
	if g.apiKey == "" {
		return "", gateway.ErrNotInitialized
	}
	return g.createVariant(ctx, productID, "Updated Price", price)
}

func (g *LemonSqueezyGateway) createVariant(ctx context.Context, productID, name string, price gateway.PriceDetails) (string, error) {
	attributes := map[string]interface{}{
		"product_id": productID,
		"name":       name,
		"price":      centsToDollars(price.AmountCents),
	}
	if price.Recurring {
		attributes["interval"] = price.Interval
	}

	var variant lsResource
	err := g.request(ctx, http.MethodPost, "/variants", map[string]interface{}{
		"data": map[string]interface{}{
			"type":       "variants",
			"attributes": attributes,
		},
	}, &variant)
	if err != nil {
		return "", err
	}
	return variant.Data.ID, nil
}

func (g *LemonSqueezyGateway) CreateCheckoutURL(ctx context.Context, req gateway.CheckoutRequest) (string, error) {
	if g.apiKey == "" {
		return "", gateway.ErrNotInitialized
	}

	storeID, err := strconv.Atoi(g.storeID)
	if err != nil {
		return "", fmt.Errorf("%w: store ID must be numeric", gateway.ErrInvalidCredentials)
	}
	variantID, err := strconv.Atoi(req.PriceID)
	if err != nil {
		return "", fmt.Errorf("invalid lemon squeezy variant id %q", req.PriceID)
	}

	var checkout struct {
		Data struct {
			Attributes struct {
				URL string `json:"url"`
			} `json:"attributes"`
		} `json:"data"`
	}
	err = g.request(ctx, http.MethodPost, "/checkouts", map[string]interface{}{
		"data": map[string]interface{}{
			"type": "checkouts",
			"attributes": map[string]interface{}{
				"store_id":   storeID,
				"variant_id": variantID,
				"checkout_data": map[string]interface{}{
					"email": req.Email,
					"custom": map[string]string{
						metaKeyOrderNo:      req.OrderNo,
						metaKeyRepositoryID: strconv.FormatUint(uint64(req.RepositoryID), 10),
						metaKeyUsername:     req.GitHubUsername,
					},
				},
			},
		},
	}, &checkout)
	if err != nil {
		return "", err
	}
	if checkout.Data.Attributes.URL == "" {
		return "", fmt.Errorf("lemon squeezy returned a checkout without a URL")
	}
	return checkout.Data.Attributes.URL, nil
}

// VerifyWebhook checks the X-Signature HMAC when a signing secret is
// configured. Without one, events pass through and the engine relies on
// matching against existing pending purchases only.
func (g *LemonSqueezyGateway) VerifyWebhook(req *http.Request, body []byte) error {
	if g.signingSecret == "" {
		return nil
	}
	sig := req.Header.Get("X-Signature")
	if sig == "" {
		return fmt.Errorf("%w: missing X-Signature header", gateway.ErrSignatureVerification)
	}
	mac := hmac.New(sha256.New, []byte(g.signingSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return gateway.ErrSignatureVerification
	}
	return nil
}

type lsWebhook struct {
	Meta struct {
		EventName  string            `json:"event_name"`
		CustomData map[string]string `json:"custom_data"`
	} `json:"meta"`
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			CustomerID     json.Number `json:"customer_id"`
			SubscriptionID json.Number `json:"subscription_id"`
			Total          float64     `json:"total"`
			UserEmail      string      `json:"user_email"`
			FirstOrderItem struct {
				Variant struct {
					CustomData map[string]string `json:"custom_data"`
				} `json:"variant"`
			} `json:"first_order_item"`
		} `json:"attributes"`
	} `json:"data"`
}

func (g *LemonSqueezyGateway) ParseWebhook(req *http.Request, body []byte) (*gateway.WebhookEvent, error) {
	var evt lsWebhook
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("failed to decode lemon squeezy event: %w", err)
	}

	custom := evt.Meta.CustomData
	if len(custom) == 0 {
		custom = evt.Data.Attributes.FirstOrderItem.Variant.CustomData
	}

	base := gateway.WebhookEvent{
		Provider:       merchant.ProviderLemonSqueezy,
		OrderNo:        custom[metaKeyOrderNo],
		RepositoryID:   parseRepositoryID(custom[metaKeyRepositoryID]),
		GitHubUsername: custom[metaKeyUsername],
		Email:          evt.Data.Attributes.UserEmail,
		CustomerID:     evt.Data.Attributes.CustomerID.String(),
		AmountCents:    dollarsToCents(evt.Data.Attributes.Total),
		Currency:       "usd",
	}

	switch evt.Meta.EventName {
	case "order_created":
		base.Kind = gateway.KindPaymentSucceeded
		base.PaymentIntentID = evt.Data.ID
		base.SubscriptionID = evt.Data.Attributes.SubscriptionID.String()
	case "subscription_cancelled":
		base.Kind = gateway.KindSubscriptionCanceled
		base.SubscriptionID = evt.Data.ID
	case "subscription_payment_success":
		base.Kind = gateway.KindRenewal
		base.SubscriptionID = evt.Data.ID
	case "subscription_payment_failed":
		base.Kind = gateway.KindPaymentFailed
		base.SubscriptionID = evt.Data.ID
		base.Detail = "subscription payment failed"
	default:
		base.Kind = gateway.KindIgnored
	}

	if base.CustomerID == "0" {
		base.CustomerID = ""
	}
	if base.SubscriptionID == "0" {
		base.SubscriptionID = ""
	}
	return &base, nil
}

func (g *LemonSqueezyGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	if g.apiKey == "" {
		return gateway.ErrNotInitialized
	}
	return g.request(ctx, http.MethodDelete, "/subscriptions/"+subscriptionID, nil, nil)
}

func (g *LemonSqueezyGateway) request(ctx context.Context, method, path string, payload, out interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Accept", "application/vnd.api+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/vnd.api+json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("lemon squeezy request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read lemon squeezy response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &gateway.APIError{
			Provider:   string(merchant.ProviderLemonSqueezy),
			Operation:  path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode lemon squeezy response: %w", err)
	}
	return nil
}

func centsToDollars(cents int64) float64 {
	return float64(cents) / 100
}

func dollarsToCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}
