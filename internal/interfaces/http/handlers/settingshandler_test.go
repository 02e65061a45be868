package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	merchantUsecases "github.com/repogate-inc/repogate/internal/application/merchant/usecases"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	"github.com/repogate-inc/repogate/internal/interfaces/http/handlers/testutil"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
)

type mockConnectProviderUC struct {
	err    error
	called bool
	gotCmd merchantUsecases.ConnectProviderCommand
}

func (m *mockConnectProviderUC) Execute(ctx context.Context, cmd merchantUsecases.ConnectProviderCommand) error {
	m.called = true
	m.gotCmd = cmd
	return m.err
}

type mockDisconnectProviderUC struct {
	err        error
	called     bool
	gotOwnerID uint
}

func (m *mockDisconnectProviderUC) Execute(ctx context.Context, ownerID uint) error {
	m.called = true
	m.gotOwnerID = ownerID
	return m.err
}

func TestSettingsHandler_ConnectProvider_Success(t *testing.T) {
	mockUC := &mockConnectProviderUC{}
	handler := NewSettingsHandler(mockUC, &mockDisconnectProviderUC{}, testutil.NewMockLogger())

	reqBody := ConnectProviderRequest{
		OwnerID:              10,
		Provider:             "stripe",
		StripeSecretKey:      "sk_test_123",
		StripePublishableKey: "pk_test_123",
	}
	c, w := testutil.NewTestContext(http.MethodPut, "/api/admin/settings/provider", reqBody)

	handler.ConnectProvider(c)

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, mockUC.called)
	assert.Equal(t, uint(10), mockUC.gotCmd.OwnerID)
	assert.Equal(t, merchant.ProviderStripe, mockUC.gotCmd.Provider)
	assert.Equal(t, "sk_test_123", mockUC.gotCmd.StripeSecretKey)
	assert.Equal(t, "pk_test_123", mockUC.gotCmd.StripePublishableKey)
}

func TestSettingsHandler_ConnectProvider_MissingProvider(t *testing.T) {
	mockUC := &mockConnectProviderUC{}
	handler := NewSettingsHandler(mockUC, &mockDisconnectProviderUC{}, testutil.NewMockLogger())

	reqBody := ConnectProviderRequest{OwnerID: 10}
	c, w := testutil.NewTestContext(http.MethodPut, "/api/admin/settings/provider", reqBody)

	handler.ConnectProvider(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockUC.called)
}

func TestSettingsHandler_ConnectProvider_IncompleteCredentials(t *testing.T) {
	mockUC := &mockConnectProviderUC{err: apperrors.NewValidationError("stripe requires a secret key and a publishable key")}
	handler := NewSettingsHandler(mockUC, &mockDisconnectProviderUC{}, testutil.NewMockLogger())

	reqBody := ConnectProviderRequest{
		OwnerID:         10,
		Provider:        "stripe",
		StripeSecretKey: "sk_test_123",
	}
	c, w := testutil.NewTestContext(http.MethodPut, "/api/admin/settings/provider", reqBody)

	handler.ConnectProvider(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsHandler_DisconnectProvider_Success(t *testing.T) {
	mockUC := &mockDisconnectProviderUC{}
	handler := NewSettingsHandler(&mockConnectProviderUC{}, mockUC, testutil.NewMockLogger())

	reqBody := DisconnectProviderRequest{OwnerID: 10}
	c, w := testutil.NewTestContext(http.MethodDelete, "/api/admin/settings/provider", reqBody)

	handler.DisconnectProvider(c)

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, mockUC.called)
	assert.Equal(t, uint(10), mockUC.gotOwnerID)
}

func TestSettingsHandler_DisconnectProvider_MissingOwner(t *testing.T) {
	mockUC := &mockDisconnectProviderUC{}
	handler := NewSettingsHandler(&mockConnectProviderUC{}, mockUC, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodDelete, "/api/admin/settings/provider", map[string]any{})

	handler.DisconnectProvider(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockUC.called)
}
