package handlers

import (
	"context"

	purchaseUsecases "github.com/repogate-inc/repogate/internal/application/purchase/usecases"
)

// Use case interfaces for AdminHandler

type revokeAccessUseCase interface {
	Execute(ctx context.Context, cmd purchaseUsecases.RevokeAccessCommand) error
}
