package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repogate-inc/repogate/internal/application/access"
	"github.com/repogate-inc/repogate/internal/application/payment/gateway"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	purchasedomain "github.com/repogate-inc/repogate/internal/domain/purchase"
	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

func newPaymentSuccessFixture(t *testing.T) (*HandlePaymentSuccessUseCase, *fakeCatalogStore, *fakePurchaseRepo, *fakeGranter, *fakeNotifier, *fakeAudit) {
	t.Helper()
	repos := newFakeCatalogStore(newPaidRepo(t), newSubscriptionRepo(t))
	purchases := newFakePurchaseRepo()
	granter := &fakeGranter{}
	notifier := &fakeNotifier{}
	audit := &fakeAudit{}
	renewals := NewHandleRenewalUseCase(repos, purchases, notifier, audit, logger.NewLogger())
	uc := NewHandlePaymentSuccessUseCase(repos, purchases, granter, notifier, audit, renewals, logger.NewLogger())
	return uc, repos, purchases, granter, notifier, audit
}

func seedPendingPurchase(t *testing.T, purchases *fakePurchaseRepo, repositoryID uint, amountCents int64) *purchasedomain.Purchase {
	t.Helper()
	p, err := purchasedomain.NewPurchase(repositoryID, "buyer@example.com", "octocat", vo.PurchaseTypeOneTime, amountCents)
	require.NoError(t, err)
	require.NoError(t, purchases.Create(context.Background(), p))
	return p
}

func TestHandlePaymentSuccess_GrantsAccess(t *testing.T) {
	uc, _, purchases, granter, _, audit := newPaymentSuccessFixture(t)
	p := seedPendingPurchase(t, purchases, 1, 4900)

	err := uc.Execute(context.Background(), gateway.WebhookEvent{
		Kind:            gateway.KindPaymentSucceeded,
		Provider:        merchant.ProviderStripe,
		OrderNo:         p.OrderNo(),
		CustomerID:      "cus_123",
		PaymentIntentID: "pi_456",
		AmountCents:     4900,
	})
	require.NoError(t, err)

	got, err := purchases.GetByID(context.Background(), p.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusCompleted, got.Status())
	assert.Equal(t, vo.AccessStatusActive, got.AccessStatus())
	assert.NotNil(t, got.AccessGrantedAt())
	assert.Equal(t, int64(4900), got.AmountCents())
	require.NotNil(t, got.CustomerID())
	assert.Equal(t, "cus_123", *got.CustomerID())

	assert.Equal(t, []string{"acme/widgets:octocat"}, granter.added)
	assert.True(t, audit.has(vo.LogActionCollaboratorAdded, vo.LogStatusSuccess))
}

func TestHandlePaymentSuccess_RedeliveryIsIdempotent(t *testing.T) {
	uc, _, purchases, granter, _, _ := newPaymentSuccessFixture(t)
	p := seedPendingPurchase(t, purchases, 1, 4900)

	event := gateway.WebhookEvent{
		Kind:     gateway.KindPaymentSucceeded,
		Provider: merchant.ProviderStripe,
		OrderNo:  p.OrderNo(),
	}
	require.NoError(t, uc.Execute(context.Background(), event))
	require.NoError(t, uc.Execute(context.Background(), event))
	require.NoError(t, uc.Execute(context.Background(), event))

	assert.Len(t, granter.added, 1)
}

func TestHandlePaymentSuccess_RecurringChargeOnActiveSubscriptionIsRenewal(t *testing.T) {
	uc, _, purchases, granter, notifier, audit := newPaymentSuccessFixture(t)
	p := seedActiveSubscription(t, purchases)

	// Paddle reports every billing cycle through the same alert; once
	// access is active the charge is a renewal, not a redelivery.
	err := uc.Execute(context.Background(), gateway.WebhookEvent{
		Kind:           gateway.KindPaymentSucceeded,
		Provider:       merchant.ProviderPaddle,
		SubscriptionID: "sub_42",
		AmountCents:    900,
		Recurring:      true,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return notifier.renewals == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, audit.has(vo.LogActionEmailSentRenewal, vo.LogStatusSuccess))

	got, err := purchases.GetByID(context.Background(), p.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusCompleted, got.Status())
	assert.Equal(t, vo.AccessStatusActive, got.AccessStatus())
	assert.Empty(t, granter.added)
}

func TestHandlePaymentSuccess_RecurringFirstChargeStillGrants(t *testing.T) {
	uc, _, purchases, granter, _, _ := newPaymentSuccessFixture(t)
	p, err := purchasedomain.NewPurchase(3, "buyer@example.com", "octocat", vo.PurchaseTypeSubscription, 900)
	require.NoError(t, err)
	require.NoError(t, purchases.Create(context.Background(), p))

	err = uc.Execute(context.Background(), gateway.WebhookEvent{
		Kind:           gateway.KindPaymentSucceeded,
		Provider:       merchant.ProviderPaddle,
		OrderNo:        p.OrderNo(),
		SubscriptionID: "sub_43",
		Recurring:      true,
	})
	require.NoError(t, err)

	got, err := purchases.GetByID(context.Background(), p.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.AccessStatusActive, got.AccessStatus())
	assert.Equal(t, []string{"acme/widgets-pro:octocat"}, granter.added)
}

func TestHandlePaymentSuccess_FallbackLookupByRepoAndUsername(t *testing.T) {
	uc, _, purchases, _, _, _ := newPaymentSuccessFixture(t)
	p := seedPendingPurchase(t, purchases, 1, 4900)

	// Provider dropped the order reference; event still carries buyer
	// identity.
	err := uc.Execute(context.Background(), gateway.WebhookEvent{
		Kind:           gateway.KindPaymentSucceeded,
		Provider:       merchant.ProviderGumroad,
		RepositoryID:   1,
		GitHubUsername: "octocat",
	})
	require.NoError(t, err)

	got, err := purchases.GetByID(context.Background(), p.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.AccessStatusActive, got.AccessStatus())
}

func TestHandlePaymentSuccess_UnmatchedEventAcknowledged(t *testing.T) {
	uc, _, _, granter, _, audit := newPaymentSuccessFixture(t)

	err := uc.Execute(context.Background(), gateway.WebhookEvent{
		Kind:     gateway.KindPaymentSucceeded,
		Provider: merchant.ProviderStripe,
		OrderNo:  "pur_nonexistent",
	})
	require.NoError(t, err)
	assert.Empty(t, granter.added)
	assert.True(t, audit.has(vo.LogActionPaymentFailed, vo.LogStatusFailed))
}

func TestHandlePaymentSuccess_NonexistentUserKeepsAccessPending(t *testing.T) {
	uc, _, purchases, granter, notifier, audit := newPaymentSuccessFixture(t)
	p := seedPendingPurchase(t, purchases, 1, 4900)
	granter.addErr = access.ErrUserNotFound

	err := uc.Execute(context.Background(), gateway.WebhookEvent{
		Kind:     gateway.KindPaymentSucceeded,
		Provider: merchant.ProviderStripe,
		OrderNo:  p.OrderNo(),
	})
	require.NoError(t, err)

	got, err := purchases.GetByID(context.Background(), p.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusCompleted, got.Status())
	assert.Equal(t, vo.AccessStatusPending, got.AccessStatus())
	assert.False(t, got.GrantPending())
	assert.NotEmpty(t, got.GrantBlockedReason())
	assert.True(t, audit.has(vo.LogActionCollaboratorAdded, vo.LogStatusFailed))

	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return notifier.adminAlerts == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandlePaymentSuccess_ExhaustedRetriesMarkFailed(t *testing.T) {
	uc, _, purchases, granter, _, audit := newPaymentSuccessFixture(t)
	p := seedPendingPurchase(t, purchases, 1, 4900)
	granter.addErr = errors.New("github unavailable")

	err := uc.Execute(context.Background(), gateway.WebhookEvent{
		Kind:     gateway.KindPaymentSucceeded,
		Provider: merchant.ProviderStripe,
		OrderNo:  p.OrderNo(),
	})
	require.NoError(t, err)

	got, err := purchases.GetByID(context.Background(), p.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusFailed, got.Status())
	assert.Equal(t, vo.AccessStatusPending, got.AccessStatus())
	assert.True(t, audit.has(vo.LogActionCollaboratorAdded, vo.LogStatusFailed))
}

func TestHandlePaymentSuccess_RevokedPurchaseStaysRevoked(t *testing.T) {
	uc, _, purchases, granter, _, _ := newPaymentSuccessFixture(t)
	p := seedPendingPurchase(t, purchases, 1, 4900)
	require.NoError(t, p.MarkCompleted())
	require.NoError(t, p.GrantAccess())
	require.NoError(t, p.RevokeAccess(purchasedomain.RevocationReasonRefunded, nil))
	require.NoError(t, purchases.Update(context.Background(), p))

	err := uc.Execute(context.Background(), gateway.WebhookEvent{
		Kind:     gateway.KindPaymentSucceeded,
		Provider: merchant.ProviderStripe,
		OrderNo:  p.OrderNo(),
	})
	require.NoError(t, err)

	got, err := purchases.GetByID(context.Background(), p.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.AccessStatusRevoked, got.AccessStatus())
	assert.Empty(t, granter.added)
}
