package handlers

import (
	"context"

	merchantUsecases "github.com/repogate-inc/repogate/internal/application/merchant/usecases"
)

// Use case interfaces for SettingsHandler

type connectProviderUseCase interface {
	Execute(ctx context.Context, cmd merchantUsecases.ConnectProviderCommand) error
}

type disconnectProviderUseCase interface {
	Execute(ctx context.Context, ownerID uint) error
}
