package handlers

import (
	"context"

	purchaseUsecases "github.com/repogate-inc/repogate/internal/application/purchase/usecases"
)

// Use case interfaces for CheckoutHandler

type createCheckoutUseCase interface {
	Execute(ctx context.Context, cmd purchaseUsecases.CreateCheckoutCommand) (*purchaseUsecases.CreateCheckoutResult, error)
}

type grantFreeAccessUseCase interface {
	Execute(ctx context.Context, cmd purchaseUsecases.GrantFreeAccessCommand) (*purchaseUsecases.GrantFreeAccessResult, error)
}
