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

const gumroadAPIBaseURL = "https://api.gumroad.com/v2"

// GumroadGateway drives the Gumroad v2 API. The whole API is
// form-encoded, prices are decimal dollars, and the product doubles as
// its own price: there is no separate price object.
//
// Gumroad pings carry no signature. When a shared webhook token is
// configured the ping URL must carry it; without one, events are
// accepted unverified and reconciliation leans entirely on matching
// existing pending purchases.
type GumroadGateway struct {
	httpClient  *http.Client
	accessToken string
	sharedToken string
	baseURL     string
	logger      logger.Interface
}

var _ gateway.Gateway = (*GumroadGateway)(nil)

func NewGumroadGateway(sharedToken string, logger logger.Interface) *GumroadGateway {
	return &GumroadGateway{
		httpClient:  &http.Client{Timeout: requestTimeout},
		sharedToken: sharedToken,
		baseURL:     gumroadAPIBaseURL,
		logger:      logger,
	}
}

func (g *GumroadGateway) Provider() merchant.Provider { return merchant.ProviderGumroad }

func (g *GumroadGateway) Initialize(creds merchant.Credentials) error {
	if creds.Provider() != merchant.ProviderGumroad {
		return gateway.ErrInvalidCredentials
	}
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("%w: %v", gateway.ErrInvalidCredentials, err)
	}
	g.accessToken = creds.GumroadAccessToken()
	return nil
}

func (g *GumroadGateway) CreateProduct(ctx context.Context, details gateway.ProductDetails) (*gateway.CreateProductResult, error) {
	if g.accessToken == "" {
		return nil, gateway.ErrNotInitialized
	}
	if details.Price.Recurring {
		// Gumroad memberships cannot be created through the API.
		return nil, fmt.Errorf("%w: gumroad subscriptions require manual setup", gateway.ErrUnsupportedOperation)
	}

	form := url.Values{}
	form.Set("name", details.Name)
	form.Set("description", details.Description)
	form.Set("price", formatDollars(details.Price.AmountCents))
	form.Set("currency", strings.ToUpper(orDefault(details.Price.Currency, "usd")))

	var result struct {
		Product struct {
			ID string `json:"id"`
		} `json:"product"`
	}
	if err := g.postForm(ctx, "/products", form, &result); err != nil {
		return nil, err
	}
	return &gateway.CreateProductResult{
		ProductID: result.Product.ID,
		PriceID:   result.Product.ID,
	}, nil
}

func (g *GumroadGateway) UpdateProduct(ctx context.Context, productID string, details gateway.ProductDetails) error {
	if g.accessToken == "" {
		return gateway.ErrNotInitialized
	}
	form := url.Values{}
	form.Set("name", details.Name)
	form.Set("description", details.Description)
	return g.postForm(ctx, "/products/"+productID, form, nil)
}

// UpdatePrice mutates the product in place and keeps the product ID as
// the price reference.
func (g *GumroadGateway) UpdatePrice(ctx context.Context, productID string, price gateway.PriceDetails) (string, error) {
	if g.accessToken == "" {
		return "", gateway.ErrNotInitialized
	}
	form := url.Values{}
	form.Set("price", formatDollars(price.AmountCents))
	if err := g.postForm(ctx, "/products/"+productID, form, nil); err != nil {
		return "", err
	}
	return productID, nil
}

// CreateCheckoutURL returns the product's permalink with the buyer
// identity attached as custom fields, which Gumroad echoes back in the
// sale ping.
func (g *GumroadGateway) CreateCheckoutURL(ctx context.Context, req gateway.CheckoutRequest) (string, error) {
	if g.accessToken == "" {
		return "", gateway.ErrNotInitialized
	}

	var result struct {
		Product struct {
			ShortURL string `json:"short_url"`
			URL      string `json:"url"`
		} `json:"product"`
	}
	if err := g.getJSON(ctx, "/products/"+req.ProductID, &result); err != nil {
		return "", err
	}

	permalink := result.Product.ShortURL
	if permalink == "" {
		permalink = result.Product.URL
	}
	if permalink == "" {
		return "", fmt.Errorf("gumroad product %s has no permalink", req.ProductID)
	}

	u, err := url.Parse(permalink)
	if err != nil {
		return "", fmt.Errorf("invalid gumroad permalink: %w", err)
	}
	q := u.Query()
	q.Set("wanted", "true")
	q.Set("email", req.Email)
	q.Set(metaKeyOrderNo, req.OrderNo)
	q.Set(metaKeyRepositoryID, strconv.FormatUint(uint64(req.RepositoryID), 10))
	q.Set(metaKeyUsername, req.GitHubUsername)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (g *GumroadGateway) VerifyWebhook(req *http.Request, body []byte) error {
	if g.sharedToken == "" {
		return nil
	}
	token := req.URL.Query().Get("token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(g.sharedToken)) != 1 {
		return fmt.Errorf("%w: shared token mismatch", gateway.ErrSignatureVerification)
	}
	return nil
}

// ParseWebhook reads Gumroad's form-encoded sale ping. Custom checkout
// fields come back as top-level form values.
func (g *GumroadGateway) ParseWebhook(req *http.Request, body []byte) (*gateway.WebhookEvent, error) {
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse gumroad webhook form: %w", err)
	}

	event := gateway.WebhookEvent{
		Provider:        merchant.ProviderGumroad,
		OrderNo:         form.Get(metaKeyOrderNo),
		RepositoryID:    parseRepositoryID(form.Get(metaKeyRepositoryID)),
		GitHubUsername:  form.Get(metaKeyUsername),
		Email:           form.Get("email"),
		CustomerID:      form.Get("purchaser_id"),
		SubscriptionID:  form.Get("subscription_id"),
		PaymentIntentID: form.Get("sale_id"),
		Currency:        "usd",
	}
	if price := form.Get("price"); price != "" {
		// Sale pings carry price in cents despite the product API
		// speaking dollars.
		if cents, err := strconv.ParseInt(price, 10, 64); err == nil {
			event.AmountCents = cents
		}
	}

	switch {
	case form.Get("refunded") == "true":
		event.Kind = gateway.KindSubscriptionCanceled
		event.Detail = "refunded"
	case form.Get("cancelled") == "true":
		event.Kind = gateway.KindSubscriptionCanceled
		event.Detail = "subscription_canceled"
	case form.Get("is_recurring_charge") == "true":
		event.Kind = gateway.KindRenewal
	default:
		event.Kind = gateway.KindPaymentSucceeded
	}
	return &event, nil
}

func (g *GumroadGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return fmt.Errorf("%w: gumroad subscriptions are canceled from the gumroad dashboard", gateway.ErrUnsupportedOperation)
}

func (g *GumroadGateway) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	form.Set("access_token", g.accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return g.send(req, path, out)
}

func (g *GumroadGateway) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?access_token="+url.QueryEscape(g.accessToken), nil)
	if err != nil {
		return err
	}
	return g.send(req, path, out)
}

func (g *GumroadGateway) send(req *http.Request, path string, out interface{}) error {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gumroad request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read gumroad response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &gateway.APIError{
			Provider:   string(merchant.ProviderGumroad),
			Operation:  path,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode gumroad response: %w", err)
	}
	return nil
}

func formatDollars(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100, 'f', 2, 64)
}
