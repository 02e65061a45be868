package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogUsecases "github.com/repogate-inc/repogate/internal/application/catalog/usecases"
	catalogvo "github.com/repogate-inc/repogate/internal/domain/catalog/valueobjects"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	"github.com/repogate-inc/repogate/internal/interfaces/http/handlers/testutil"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
)

type mockCreateListingUC struct {
	result *catalogUsecases.CreateListingResult
	err    error
	called bool
	gotCmd catalogUsecases.CreateListingCommand
}

func (m *mockCreateListingUC) Execute(ctx context.Context, cmd catalogUsecases.CreateListingCommand) (*catalogUsecases.CreateListingResult, error) {
	m.called = true
	m.gotCmd = cmd
	return m.result, m.err
}

type mockChangePriceUC struct {
	err    error
	called bool
	gotCmd catalogUsecases.ChangeListingPriceCommand
}

func (m *mockChangePriceUC) Execute(ctx context.Context, cmd catalogUsecases.ChangeListingPriceCommand) error {
	m.called = true
	m.gotCmd = cmd
	return m.err
}

func TestListingHandler_CreateListing_Success(t *testing.T) {
	mockUC := &mockCreateListingUC{
		result: &catalogUsecases.CreateListingResult{RepositoryID: 7, Slug: "widgets"},
	}
	handler := NewListingHandler(mockUC, &mockChangePriceUC{}, testutil.NewMockLogger())

	reqBody := CreateListingRequest{
		OwnerID:         10,
		GitHubOwner:     "acme",
		GitHubRepoName:  "widgets",
		DisplayName:     "Widgets",
		PricingType:     "one_time",
		PriceCents:      4900,
		PaymentProvider: "stripe",
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/api/admin/repositories", reqBody)

	handler.CreateListing(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.True(t, mockUC.called)
	assert.Equal(t, uint(10), mockUC.gotCmd.OwnerID)
	assert.Equal(t, catalogvo.PricingTypeOneTime, mockUC.gotCmd.PricingType)
	assert.Equal(t, merchant.ProviderStripe, mockUC.gotCmd.PaymentProvider)
	assert.Nil(t, mockUC.gotCmd.Cadence)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.Contains(t, string(resp.Data), `"slug":"widgets"`)
}

func TestListingHandler_CreateListing_CadencePassedThrough(t *testing.T) {
	mockUC := &mockCreateListingUC{
		result: &catalogUsecases.CreateListingResult{RepositoryID: 8, Slug: "widgets-pro"},
	}
	handler := NewListingHandler(mockUC, &mockChangePriceUC{}, testutil.NewMockLogger())

	reqBody := CreateListingRequest{
		OwnerID:        10,
		GitHubOwner:    "acme",
		GitHubRepoName: "widgets-pro",
		PricingType:    "subscription",
		PriceCents:     900,
		Cadence:        "monthly",
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/api/admin/repositories", reqBody)

	handler.CreateListing(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, mockUC.gotCmd.Cadence)
	assert.Equal(t, catalogvo.CadenceMonthly, *mockUC.gotCmd.Cadence)
}

func TestListingHandler_CreateListing_InvalidPricingType(t *testing.T) {
	mockUC := &mockCreateListingUC{}
	handler := NewListingHandler(mockUC, &mockChangePriceUC{}, testutil.NewMockLogger())

	reqBody := CreateListingRequest{
		OwnerID:        10,
		GitHubOwner:    "acme",
		GitHubRepoName: "widgets",
		PricingType:    "pay-what-you-want",
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/api/admin/repositories", reqBody)

	handler.CreateListing(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockUC.called)
}

func TestListingHandler_CreateListing_Conflict(t *testing.T) {
	mockUC := &mockCreateListingUC{err: apperrors.NewConflictError("a listing with slug \"widgets\" already exists")}
	handler := NewListingHandler(mockUC, &mockChangePriceUC{}, testutil.NewMockLogger())

	reqBody := CreateListingRequest{
		OwnerID:        10,
		GitHubOwner:    "acme",
		GitHubRepoName: "widgets",
		PricingType:    "free",
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/api/admin/repositories", reqBody)

	handler.CreateListing(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListingHandler_ChangePrice_Success(t *testing.T) {
	mockUC := &mockChangePriceUC{}
	handler := NewListingHandler(&mockCreateListingUC{}, mockUC, testutil.NewMockLogger())

	reqBody := ChangeListingPriceRequest{ActorID: 10, PriceCents: 5900}
	c, w := testutil.NewTestContext(http.MethodPut, "/api/admin/repositories/7/price", reqBody)
	testutil.SetURLParam(c, "id", "7")

	handler.ChangePrice(c)

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, mockUC.called)
	assert.Equal(t, uint(7), mockUC.gotCmd.RepositoryID)
	assert.Equal(t, uint(10), mockUC.gotCmd.ActorID)
	assert.Equal(t, int64(5900), mockUC.gotCmd.PriceCents)
}

func TestListingHandler_ChangePrice_InvalidID(t *testing.T) {
	mockUC := &mockChangePriceUC{}
	handler := NewListingHandler(&mockCreateListingUC{}, mockUC, testutil.NewMockLogger())

	reqBody := ChangeListingPriceRequest{ActorID: 10, PriceCents: 100}
	c, w := testutil.NewTestContext(http.MethodPut, "/api/admin/repositories/abc/price", reqBody)
	testutil.SetURLParam(c, "id", "abc")

	handler.ChangePrice(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockUC.called)
}

func TestListingHandler_ChangePrice_Forbidden(t *testing.T) {
	mockUC := &mockChangePriceUC{err: apperrors.NewForbiddenError("only the repository owner can change its price")}
	handler := NewListingHandler(&mockCreateListingUC{}, mockUC, testutil.NewMockLogger())

	reqBody := ChangeListingPriceRequest{ActorID: 99, PriceCents: 100}
	c, w := testutil.NewTestContext(http.MethodPut, "/api/admin/repositories/7/price", reqBody)
	testutil.SetURLParam(c, "id", "7")

	handler.ChangePrice(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
