package payment

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/repogate-inc/repogate/internal/application/payment/gateway"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

const paddleAPIBaseURL = "https://api.paddle.com"

// PaddleGateway drives the Paddle classic vendor API. Everything is
// form-encoded and authenticated with the vendor ID and auth code in
// the body; prices are decimal dollars. Paddle has no product or price
// update API, so both return ErrUnsupportedOperation.
type PaddleGateway struct {
	httpClient  *http.Client
	vendorID    string
	apiKey      string
	sharedToken string
	baseURL     string
	logger      logger.Interface
}

var _ gateway.Gateway = (*PaddleGateway)(nil)

func NewPaddleGateway(sharedToken string, logger logger.Interface) *PaddleGateway {
	return &PaddleGateway{
		httpClient:  &http.Client{Timeout: requestTimeout},
		sharedToken: sharedToken,
		baseURL:     paddleAPIBaseURL,
		logger:      logger,
	}
}

func (g *PaddleGateway) Provider() merchant.Provider { return merchant.ProviderPaddle }

func (g *PaddleGateway) Initialize(creds merchant.Credentials) error {
	if creds.Provider() != merchant.ProviderPaddle {
		return gateway.ErrInvalidCredentials
	}
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("%w: %v", gateway.ErrInvalidCredentials, err)
	}
	g.vendorID = creds.PaddleVendorID()
	g.apiKey = creds.PaddleAPIKey()
	return nil
}

func (g *PaddleGateway) CreateProduct(ctx context.Context, details gateway.ProductDetails) (*gateway.CreateProductResult, error) {
	if g.vendorID == "" {
		return nil, gateway.ErrNotInitialized
	}

	form := url.Values{}
	form.Set("product_title", details.Name)
	form.Set("product_description", details.Description)
	form.Set("price", formatDollars(details.Price.AmountCents))
	form.Set("currency", strings.ToUpper(orDefault(details.Price.Currency, "usd")))

	endpoint := "/2.0/product/generate_pay_link"
	if details.Price.Recurring {
		endpoint = "/2.0/subscription/plans_create"
		form.Set("billing_type", "month")
		if details.Price.Interval == "year" {
			form.Set("billing_period", "12")
		} else {
			form.Set("billing_period", "1")
		}
	}

	var result struct {
		Response struct {
			ProductID json.Number `json:"product_id"`
			PlanID    json.Number `json:"plan_id"`
		} `json:"response"`
	}
	if err := g.postForm(ctx, endpoint, form, &result); err != nil {
		return nil, err
	}

	id := result.Response.ProductID.String()
	if id == "" || id == "0" {
		id = result.Response.PlanID.String()
	}
	if id == "" || id == "0" {
		return nil, fmt.Errorf("paddle returned no product or plan id")
	}
	return &gateway.CreateProductResult{ProductID: id, PriceID: id}, nil
}

func (g *PaddleGateway) UpdateProduct(ctx context.Context, productID string, details gateway.ProductDetails) error {
	return fmt.Errorf("%w: paddle products are edited from the paddle dashboard", gateway.ErrUnsupportedOperation)
}

func (g *PaddleGateway) UpdatePrice(ctx context.Context, productID string, price gateway.PriceDetails) (string, error) {
	return "", fmt.Errorf("%w: paddle prices require a new product", gateway.ErrUnsupportedOperation)
}

func (g *PaddleGateway) CreateCheckoutURL(ctx context.Context, req gateway.CheckoutRequest) (string, error) {
	if g.vendorID == "" {
		return "", gateway.ErrNotInitialized
	}

	passthrough, err := json.Marshal(map[string]string{
		metaKeyOrderNo:      req.OrderNo,
		metaKeyRepositoryID: strconv.FormatUint(uint64(req.RepositoryID), 10),
		metaKeyUsername:     req.GitHubUsername,
		metaKeyEmail:        req.Email,
	})
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("product_id", req.PriceID)
	form.Set("customer_email", req.Email)
	form.Set("passthrough", string(passthrough))

	var result struct {
		Response struct {
			URL string `json:"url"`
		} `json:"response"`
	}
	if err := g.postForm(ctx, "/2.0/product/generate_pay_link", form, &result); err != nil {
		return "", err
	}
	if result.Response.URL == "" {
		return "", fmt.Errorf("paddle returned a pay link without a URL")
	}
	return result.Response.URL, nil
}

func (g *PaddleGateway) VerifyWebhook(req *http.Request, body []byte) error {
	if g.sharedToken == "" {
		return nil
	}
	token := req.URL.Query().Get("token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(g.sharedToken)) != 1 {
		return fmt.Errorf("%w: shared token mismatch", gateway.ErrSignatureVerification)
	}
	return nil
}

// ParseWebhook reads Paddle's form-encoded alert. The buyer identity
// rides in the passthrough JSON set at pay-link creation.
func (g *PaddleGateway) ParseWebhook(req *http.Request, body []byte) (*gateway.WebhookEvent, error) {
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse paddle webhook form: %w", err)
	}

	passthrough := map[string]string{}
	if raw := form.Get("passthrough"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &passthrough); err != nil {
			g.logger.Warnw("failed to parse paddle passthrough", "error", err)
		}
	}

	email := passthrough[metaKeyEmail]
	if email == "" {
		email = form.Get("email")
	}

	event := gateway.WebhookEvent{
		Provider:        merchant.ProviderPaddle,
		OrderNo:         passthrough[metaKeyOrderNo],
		RepositoryID:    parseRepositoryID(passthrough[metaKeyRepositoryID]),
		GitHubUsername:  passthrough[metaKeyUsername],
		Email:           email,
		CustomerID:      form.Get("user_id"),
		SubscriptionID:  form.Get("subscription_id"),
		PaymentIntentID: form.Get("order_id"),
		Currency:        "usd",
	}
	if gross := form.Get("sale_gross"); gross != "" {
		if dollars, err := strconv.ParseFloat(gross, 64); err == nil {
			event.AmountCents = dollarsToCents(dollars)
		}
	}

	switch form.Get("alert_name") {
	case "payment_succeeded":
		event.Kind = gateway.KindPaymentSucceeded
	case "subscription_payment_succeeded":
		// Paddle fires this for the first charge and every renewal
		// alike; the engine tells them apart by purchase state.
		event.Kind = gateway.KindPaymentSucceeded
		event.Recurring = true
	case "subscription_cancelled":
		event.Kind = gateway.KindSubscriptionCanceled
	case "subscription_payment_failed":
		event.Kind = gateway.KindPaymentFailed
		event.Detail = "subscription payment failed"
	case "payment_refunded":
		event.Kind = gateway.KindPaymentFailed
		event.Detail = "payment refunded"
	default:
		event.Kind = gateway.KindIgnored
	}
	return &event, nil
}

func (g *PaddleGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	if g.vendorID == "" {
		return gateway.ErrNotInitialized
	}
	form := url.Values{}
	form.Set("subscription_id", subscriptionID)
	return g.postForm(ctx, "/2.0/subscription/users_cancel", form, nil)
}

func (g *PaddleGateway) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	form.Set("vendor_id", g.vendorID)
	form.Set("vendor_auth_code", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paddle request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read paddle response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &gateway.APIError{
			Provider:   string(merchant.ProviderPaddle),
			Operation:  path,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode paddle response: %w", err)
	}
	return nil
}
