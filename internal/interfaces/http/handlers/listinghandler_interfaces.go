package handlers

import (
	"context"

	catalogUsecases "github.com/repogate-inc/repogate/internal/application/catalog/usecases"
)

// Use case interfaces for ListingHandler

type createListingUseCase interface {
	Execute(ctx context.Context, cmd catalogUsecases.CreateListingCommand) (*catalogUsecases.CreateListingResult, error)
}

type changeListingPriceUseCase interface {
	Execute(ctx context.Context, cmd catalogUsecases.ChangeListingPriceCommand) error
}
