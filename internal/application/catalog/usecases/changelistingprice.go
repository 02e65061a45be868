package usecases

import (
	"context"
	"fmt"

	"github.com/repogate-inc/repogate/internal/domain/catalog"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

type ChangeListingPriceCommand struct {
	RepositoryID uint
	ActorID      uint
	PriceCents   int64
}

// ChangeListingPriceUseCase reprices a listing. The open pricing history
// entry is closed and a new one opened, so at most one entry per
// repository is ever open. The remote provider price is invalidated and
// lazily recreated on the next checkout.
type ChangeListingPriceUseCase struct {
	repos   catalog.Store
	history catalog.PricingHistoryStore
	logger  logger.Interface
}

func NewChangeListingPriceUseCase(
	repos catalog.Store,
	history catalog.PricingHistoryStore,
	logger logger.Interface,
) *ChangeListingPriceUseCase {
	return &ChangeListingPriceUseCase{
		repos:   repos,
		history: history,
		logger:  logger,
	}
}

func (uc *ChangeListingPriceUseCase) Execute(ctx context.Context, cmd ChangeListingPriceCommand) error {
	repo, err := uc.repos.GetByID(ctx, cmd.RepositoryID)
	if err != nil {
		return err
	}
	if repo.OwnerID() != cmd.ActorID {
		return apperrors.NewForbiddenError("only the repository owner can change its price")
	}
	if repo.PriceCents() == cmd.PriceCents {
		return nil
	}

	if err := repo.ChangePrice(cmd.PriceCents); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if err := uc.repos.Update(ctx, repo); err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}

	open, err := uc.history.GetOpenByRepositoryID(ctx, repo.ID())
	if err != nil {
		return fmt.Errorf("failed to load open pricing entry: %w", err)
	}
	if open != nil {
		open.Close()
		if err := uc.history.Update(ctx, open); err != nil {
			return fmt.Errorf("failed to close pricing entry: %w", err)
		}
	}

	actorID := cmd.ActorID
	entry, err := catalog.NewPricingHistory(repo.ID(), repo.PriceCents(), repo.PricingType(), repo.Cadence(), &actorID)
	if err != nil {
		return err
	}
	if err := uc.history.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to open pricing entry: %w", err)
	}

	uc.logger.Infow("listing repriced",
		"repository_id", repo.ID(),
		"slug", repo.Slug(),
		"price_cents", repo.PriceCents(),
		"actor_id", cmd.ActorID,
	)

	return nil
}
