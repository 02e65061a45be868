package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/repogate-inc/repogate/internal/domain/merchant"
	"github.com/repogate-inc/repogate/internal/domain/purchase"
	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	"github.com/repogate-inc/repogate/internal/infrastructure/persistence/models"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.PurchaseModel{},
		&models.RepositoryModel{},
		&models.AccessLogModel{},
		&models.PricingHistoryModel{},
		&models.MerchantCredentialsModel{},
	)
	require.NoError(t, err)

	return db
}

func createTestPurchase(t *testing.T, repositoryID uint, username string) *purchase.Purchase {
	p, err := purchase.NewPurchase(repositoryID, "buyer@example.com", username, vo.PurchaseTypeOneTime, 4900)
	require.NoError(t, err)
	return p
}

func TestPurchaseRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	t.Run("create assigns id", func(t *testing.T) {
		p := createTestPurchase(t, 1, "octocat")

		err := repo.Create(ctx, p)
		assert.NoError(t, err)
		assert.NotZero(t, p.ID())
	})

	t.Run("duplicate order_no fails", func(t *testing.T) {
		p1 := createTestPurchase(t, 2, "octocat")
		require.NoError(t, repo.Create(ctx, p1))

		p2 := purchase.ReconstructPurchase(purchase.PurchaseReconstructParams{
			OrderNo:        p1.OrderNo(),
			RepositoryID:   2,
			Email:          "buyer@example.com",
			GitHubUsername: "octocat",
			PurchaseType:   vo.PurchaseTypeOneTime,
			Status:         vo.StatusPending,
			AccessStatus:   vo.AccessStatusPending,
		})
		err := repo.Create(ctx, p2)
		assert.Error(t, err)
	})
}

func TestPurchaseRepository_GetByOrderNo(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	p := createTestPurchase(t, 1, "octocat")
	require.NoError(t, repo.Create(ctx, p))

	t.Run("round trips the aggregate", func(t *testing.T) {
		found, err := repo.GetByOrderNo(ctx, p.OrderNo())
		require.NoError(t, err)
		assert.Equal(t, p.ID(), found.ID())
		assert.Equal(t, p.Email(), found.Email())
		assert.Equal(t, p.GitHubUsername(), found.GitHubUsername())
		assert.Equal(t, int64(4900), found.AmountCents())
		assert.Equal(t, vo.StatusPending, found.Status())
	})

	t.Run("unknown order returns not found", func(t *testing.T) {
		_, err := repo.GetByOrderNo(ctx, "ord_nope")
		assert.True(t, apperrors.IsNotFoundError(err))
	})
}

func TestPurchaseRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	t.Run("persists state transitions", func(t *testing.T) {
		p := createTestPurchase(t, 1, "octocat")
		require.NoError(t, repo.Create(ctx, p))

		p.SetProviderRefs(merchant.ProviderStripe, "cus_1", "sub_1", "pi_1")
		require.NoError(t, p.MarkCompleted())
		require.NoError(t, repo.Update(ctx, p))

		found, err := repo.GetByID(ctx, p.ID())
		require.NoError(t, err)
		assert.Equal(t, vo.StatusCompleted, found.Status())
		assert.Equal(t, merchant.ProviderStripe, found.Provider())
		assert.True(t, found.GrantPending())
	})

	t.Run("stale write is rejected", func(t *testing.T) {
		p := createTestPurchase(t, 2, "octocat")
		require.NoError(t, repo.Create(ctx, p))

		loadedA, err := repo.GetByID(ctx, p.ID())
		require.NoError(t, err)
		loadedB, err := repo.GetByID(ctx, p.ID())
		require.NoError(t, err)

		require.NoError(t, loadedA.MarkCompleted())
		require.NoError(t, repo.Update(ctx, loadedA))

		require.NoError(t, loadedB.MarkCanceled())
		err = repo.Update(ctx, loadedB)
		assert.ErrorIs(t, err, purchase.ErrStaleVersion)

		found, err := repo.GetByID(ctx, p.ID())
		require.NoError(t, err)
		assert.Equal(t, vo.StatusCompleted, found.Status())
	})

	t.Run("stale write with more mutations is still rejected", func(t *testing.T) {
		p := createTestPurchase(t, 3, "octocat")
		require.NoError(t, p.MarkCompleted())
		require.NoError(t, repo.Create(ctx, p))

		sweep, err := repo.GetByID(ctx, p.ID())
		require.NoError(t, err)
		webhook, err := repo.GetByID(ctx, p.ID())
		require.NoError(t, err)

		// The sweep grants from the loaded state.
		require.NoError(t, sweep.GrantAccess())
		require.NoError(t, repo.Update(ctx, sweep))

		// A cancellation that loaded the same state mutates twice; the
		// extra bump must not let it clobber the grant.
		require.NoError(t, webhook.RevokeAccess(purchase.RevocationReasonSubscriptionCanceled, nil))
		require.NoError(t, webhook.MarkCanceled())
		err = repo.Update(ctx, webhook)
		assert.ErrorIs(t, err, purchase.ErrStaleVersion)

		found, err := repo.GetByID(ctx, p.ID())
		require.NoError(t, err)
		assert.Equal(t, vo.AccessStatusActive, found.AccessStatus())
	})

	t.Run("sequential updates on the same aggregate succeed", func(t *testing.T) {
		p := createTestPurchase(t, 4, "octocat")
		require.NoError(t, repo.Create(ctx, p))

		require.NoError(t, p.MarkCompleted())
		require.NoError(t, repo.Update(ctx, p))

		require.NoError(t, p.GrantAccess())
		require.NoError(t, repo.Update(ctx, p))

		found, err := repo.GetByID(ctx, p.ID())
		require.NoError(t, err)
		assert.Equal(t, vo.AccessStatusActive, found.AccessStatus())
	})
}

func TestPurchaseRepository_GetBySubscriptionID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	p := createTestPurchase(t, 1, "octocat")
	p.SetProviderRefs(merchant.ProviderLemonSqueezy, "", "sub_42", "")
	require.NoError(t, repo.Create(ctx, p))

	found, err := repo.GetBySubscriptionID(ctx, "sub_42")
	require.NoError(t, err)
	assert.Equal(t, p.ID(), found.ID())

	_, err = repo.GetBySubscriptionID(ctx, "sub_unknown")
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestPurchaseRepository_GetActiveByRepoAndUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	p := createTestPurchase(t, 7, "octocat")
	require.NoError(t, p.MarkCompleted())
	require.NoError(t, p.GrantAccess())
	require.NoError(t, repo.Create(ctx, p))

	// A pending purchase for the same pair must not match.
	pending := createTestPurchase(t, 7, "octocat")
	require.NoError(t, repo.Create(ctx, pending))

	found, err := repo.GetActiveByRepoAndUsername(ctx, 7, "octocat")
	require.NoError(t, err)
	assert.Equal(t, p.ID(), found.ID())

	_, err = repo.GetActiveByRepoAndUsername(ctx, 7, "hubot")
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestPurchaseRepository_GetByRepoAndUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	// Matches regardless of status; a completed-but-ungranted request
	// still blocks a duplicate.
	p := createTestPurchase(t, 5, "octocat")
	require.NoError(t, p.MarkCompleted())
	require.NoError(t, repo.Create(ctx, p))

	found, err := repo.GetByRepoAndUsername(ctx, 5, "octocat")
	require.NoError(t, err)
	assert.Equal(t, p.ID(), found.ID())

	_, err = repo.GetByRepoAndUsername(ctx, 5, "hubot")
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestPurchaseRepository_GetLatestPendingByRepoAndUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	older := createTestPurchase(t, 3, "octocat")
	require.NoError(t, repo.Create(ctx, older))

	newer := createTestPurchase(t, 3, "octocat")
	require.NoError(t, repo.Create(ctx, newer))
	// Same created_at granularity is possible; disambiguate explicitly.
	require.NoError(t, db.Model(&models.PurchaseModel{}).
		Where("id = ?", newer.ID()).
		Update("created_at", gorm.Expr("datetime(created_at, '+1 second')")).Error)

	found, err := repo.GetLatestPendingByRepoAndUsername(ctx, 3, "octocat")
	require.NoError(t, err)
	assert.Equal(t, newer.ID(), found.ID())
}

func TestPurchaseRepository_ListGrantPending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	granted := createTestPurchase(t, 1, "done")
	require.NoError(t, granted.MarkCompleted())
	require.NoError(t, granted.GrantAccess())
	require.NoError(t, repo.Create(ctx, granted))

	owed := createTestPurchase(t, 1, "owed")
	require.NoError(t, owed.MarkCompleted())
	require.NoError(t, repo.Create(ctx, owed))

	unpaid := createTestPurchase(t, 1, "unpaid")
	require.NoError(t, repo.Create(ctx, unpaid))

	pending, err := repo.ListGrantPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, owed.ID(), pending[0].ID())
	assert.True(t, pending[0].GrantPending())
}

func TestPurchaseRepository_CountActiveByRepositoryID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	for _, username := range []string{"alice", "bob"} {
		p := createTestPurchase(t, 9, username)
		require.NoError(t, p.MarkCompleted())
		require.NoError(t, p.GrantAccess())
		require.NoError(t, repo.Create(ctx, p))
	}
	revoked := createTestPurchase(t, 9, "carol")
	require.NoError(t, revoked.MarkCompleted())
	require.NoError(t, revoked.GrantAccess())
	require.NoError(t, revoked.RevokeAccess(purchase.RevocationReasonRefunded, nil))
	require.NoError(t, repo.Create(ctx, revoked))

	count, err := repo.CountActiveByRepositoryID(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
