package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repogate-inc/repogate/internal/application/payment/gateway"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	"github.com/repogate-inc/repogate/internal/interfaces/http/handlers/testutil"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
)

// =====================================================================
// Stub gateway and factory
// =====================================================================

type stubGateway struct {
	provider   merchant.Provider
	verifyErr  error
	parseEvent *gateway.WebhookEvent
	parseErr   error
}

func (s *stubGateway) Provider() merchant.Provider                 { return s.provider }
func (s *stubGateway) Initialize(creds merchant.Credentials) error { return nil }

func (s *stubGateway) CreateProduct(ctx context.Context, details gateway.ProductDetails) (*gateway.CreateProductResult, error) {
	return nil, gateway.ErrUnsupportedOperation
}

func (s *stubGateway) UpdateProduct(ctx context.Context, productID string, details gateway.ProductDetails) error {
	return gateway.ErrUnsupportedOperation
}

func (s *stubGateway) UpdatePrice(ctx context.Context, productID string, price gateway.PriceDetails) (string, error) {
	return "", gateway.ErrUnsupportedOperation
}

func (s *stubGateway) CreateCheckoutURL(ctx context.Context, req gateway.CheckoutRequest) (string, error) {
	return "", gateway.ErrUnsupportedOperation
}

func (s *stubGateway) VerifyWebhook(req *http.Request, body []byte) error {
	return s.verifyErr
}

func (s *stubGateway) ParseWebhook(req *http.Request, body []byte) (*gateway.WebhookEvent, error) {
	return s.parseEvent, s.parseErr
}

func (s *stubGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return nil
}

type stubFactory struct {
	gw *stubGateway
}

func (f *stubFactory) New(provider merchant.Provider) (gateway.Gateway, error) {
	return f.gw, nil
}

func (f *stubFactory) NewInitialized(provider merchant.Provider, creds merchant.Credentials) (gateway.Gateway, error) {
	return f.gw, nil
}

type recordingWebhookUC struct {
	err      error
	called   bool
	gotEvent gateway.WebhookEvent
}

func (m *recordingWebhookUC) Execute(ctx context.Context, event gateway.WebhookEvent) error {
	m.called = true
	m.gotEvent = event
	return m.err
}

func newTestWebhookHandler(factory gateway.Factory, success, canceled, renewal, failed webhookEventUseCase) *WebhookHandler {
	return NewWebhookHandler(factory, success, canceled, renewal, failed, testutil.NewMockLogger())
}

func receiveWebhook(handler *WebhookHandler, provider string, body []byte) int {
	c, w := testutil.NewTestContextWithRawBody(http.MethodPost, "/webhooks/"+provider, body, "application/json")
	testutil.SetURLParam(c, "provider", provider)
	handler.Receive(c)
	return w.Code
}

// =====================================================================
// TestWebhookHandler_Receive
// =====================================================================

func TestWebhookHandler_Receive_UnknownProvider(t *testing.T) {
	handler := newTestWebhookHandler(&stubFactory{gw: &stubGateway{}}, nil, nil, nil, nil)

	code := receiveWebhook(handler, "paypal", []byte(`{}`))

	assert.Equal(t, http.StatusNotFound, code)
}

func TestWebhookHandler_Receive_VerificationFailure(t *testing.T) {
	gw := &stubGateway{
		provider:  merchant.ProviderStripe,
		verifyErr: gateway.ErrSignatureVerification,
	}
	successUC := &recordingWebhookUC{}
	handler := newTestWebhookHandler(&stubFactory{gw: gw}, successUC, nil, nil, nil)

	code := receiveWebhook(handler, "stripe", []byte(`{"type":"checkout.session.completed"}`))

	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, successUC.called)
}

func TestWebhookHandler_Receive_MalformedPayload(t *testing.T) {
	gw := &stubGateway{
		provider: merchant.ProviderStripe,
		parseErr: errors.New("unexpected end of JSON input"),
	}
	handler := newTestWebhookHandler(&stubFactory{gw: gw}, nil, nil, nil, nil)

	code := receiveWebhook(handler, "stripe", []byte(`{"broken`))

	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWebhookHandler_Receive_IgnoredEvent(t *testing.T) {
	gw := &stubGateway{
		provider:   merchant.ProviderStripe,
		parseEvent: &gateway.WebhookEvent{Kind: gateway.KindIgnored, Provider: merchant.ProviderStripe},
	}
	successUC := &recordingWebhookUC{}
	handler := newTestWebhookHandler(&stubFactory{gw: gw}, successUC, nil, nil, nil)

	code := receiveWebhook(handler, "stripe", []byte(`{"type":"invoice.created"}`))

	assert.Equal(t, http.StatusOK, code)
	assert.False(t, successUC.called)
}

func TestWebhookHandler_Receive_PaymentSucceededDispatch(t *testing.T) {
	event := &gateway.WebhookEvent{
		Kind:     gateway.KindPaymentSucceeded,
		Provider: merchant.ProviderStripe,
		OrderNo:  "ORD-20260101-abc123",
	}
	gw := &stubGateway{provider: merchant.ProviderStripe, parseEvent: event}
	successUC := &recordingWebhookUC{}
	canceledUC := &recordingWebhookUC{}
	handler := newTestWebhookHandler(&stubFactory{gw: gw}, successUC, canceledUC, nil, nil)

	code := receiveWebhook(handler, "stripe", []byte(`{}`))

	assert.Equal(t, http.StatusOK, code)
	require.True(t, successUC.called)
	assert.Equal(t, "ORD-20260101-abc123", successUC.gotEvent.OrderNo)
	assert.False(t, canceledUC.called)
}

func TestWebhookHandler_Receive_CancellationDispatch(t *testing.T) {
	event := &gateway.WebhookEvent{
		Kind:           gateway.KindSubscriptionCanceled,
		Provider:       merchant.ProviderLemonSqueezy,
		SubscriptionID: "sub_123",
	}
	gw := &stubGateway{provider: merchant.ProviderLemonSqueezy, parseEvent: event}
	canceledUC := &recordingWebhookUC{}
	handler := newTestWebhookHandler(&stubFactory{gw: gw}, nil, canceledUC, nil, nil)

	code := receiveWebhook(handler, "lemonsqueezy", []byte(`{}`))

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, canceledUC.called)
}

func TestWebhookHandler_Receive_UnmatchedPurchaseAcknowledged(t *testing.T) {
	event := &gateway.WebhookEvent{
		Kind:     gateway.KindPaymentSucceeded,
		Provider: merchant.ProviderGumroad,
		OrderNo:  "ORD-unknown",
	}
	gw := &stubGateway{provider: merchant.ProviderGumroad, parseEvent: event}
	successUC := &recordingWebhookUC{err: apperrors.NewNotFoundError("purchase not found")}
	handler := newTestWebhookHandler(&stubFactory{gw: gw}, successUC, nil, nil, nil)

	code := receiveWebhook(handler, "gumroad", []byte(`{}`))

	assert.Equal(t, http.StatusOK, code)
}

func TestWebhookHandler_Receive_TransientFailureRetryable(t *testing.T) {
	event := &gateway.WebhookEvent{
		Kind:     gateway.KindRenewal,
		Provider: merchant.ProviderPaddle,
	}
	gw := &stubGateway{provider: merchant.ProviderPaddle, parseEvent: event}
	renewalUC := &recordingWebhookUC{err: errors.New("database unavailable")}
	handler := newTestWebhookHandler(&stubFactory{gw: gw}, nil, nil, renewalUC, nil)

	code := receiveWebhook(handler, "paddle", []byte(`{}`))

	assert.Equal(t, http.StatusInternalServerError, code)
}
