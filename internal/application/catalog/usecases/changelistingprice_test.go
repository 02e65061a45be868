package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/repogate-inc/repogate/internal/domain/catalog/valueobjects"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

func newRepriceFixture(t *testing.T) (*ChangeListingPriceUseCase, *fakeCatalogStore, *fakePricingHistoryStore, uint) {
	t.Helper()
	repos := newFakeCatalogStore()
	history := newFakePricingHistoryStore()

	create := NewCreateListingUseCase(repos, history, logger.NewLogger())
	result, err := create.Execute(context.Background(), CreateListingCommand{
		OwnerID:        10,
		GitHubOwner:    "acme",
		GitHubRepoName: "widgets",
		DisplayName:    "Widgets",
		PricingType:    vo.PricingTypeOneTime,
		PriceCents:     4900,
	})
	require.NoError(t, err)

	uc := NewChangeListingPriceUseCase(repos, history, logger.NewLogger())
	return uc, repos, history, result.RepositoryID
}

func TestChangeListingPrice_RotatesHistoryEntry(t *testing.T) {
	uc, repos, history, repoID := newRepriceFixture(t)

	err := uc.Execute(context.Background(), ChangeListingPriceCommand{
		RepositoryID: repoID,
		ActorID:      10,
		PriceCents:   5900,
	})
	require.NoError(t, err)

	repo, err := repos.GetByID(context.Background(), repoID)
	require.NoError(t, err)
	assert.Equal(t, int64(5900), repo.PriceCents())
	assert.Nil(t, repo.ProviderPriceID())

	entries, err := history.ListByRepositoryID(context.Background(), repoID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].IsOpen())
	assert.True(t, entries[1].IsOpen())
	assert.Equal(t, int64(5900), entries[1].PriceCents())
	assert.Equal(t, 1, history.openCount(repoID))
}

func TestChangeListingPrice_NonOwnerForbidden(t *testing.T) {
	uc, repos, history, repoID := newRepriceFixture(t)

	err := uc.Execute(context.Background(), ChangeListingPriceCommand{
		RepositoryID: repoID,
		ActorID:      99,
		PriceCents:   100,
	})
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeForbidden, appErr.Type)

	repo, err := repos.GetByID(context.Background(), repoID)
	require.NoError(t, err)
	assert.Equal(t, int64(4900), repo.PriceCents())
	assert.Equal(t, 1, history.openCount(repoID))
}

func TestChangeListingPrice_SamePriceIsNoop(t *testing.T) {
	uc, _, history, repoID := newRepriceFixture(t)

	err := uc.Execute(context.Background(), ChangeListingPriceCommand{
		RepositoryID: repoID,
		ActorID:      10,
		PriceCents:   4900,
	})
	require.NoError(t, err)

	entries, err := history.ListByRepositoryID(context.Background(), repoID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestChangeListingPrice_NegativePriceRejected(t *testing.T) {
	uc, _, history, repoID := newRepriceFixture(t)

	err := uc.Execute(context.Background(), ChangeListingPriceCommand{
		RepositoryID: repoID,
		ActorID:      10,
		PriceCents:   -1,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
	assert.Equal(t, 1, history.openCount(repoID))
}

func TestChangeListingPrice_UnknownRepository(t *testing.T) {
	uc, _, _, _ := newRepriceFixture(t)

	err := uc.Execute(context.Background(), ChangeListingPriceCommand{
		RepositoryID: 777,
		ActorID:      10,
		PriceCents:   100,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFoundError(err))
}
