package usecases

import (
	"context"
	"fmt"

	"github.com/repogate-inc/repogate/internal/domain/merchant"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

// DisconnectProviderUseCase removes an owner's provider configuration.
// Existing purchases keep their recorded provider references; only new
// checkouts are blocked until a provider is connected again.
type DisconnectProviderUseCase struct {
	credentials merchant.CredentialsRepository
	logger      logger.Interface
}

func NewDisconnectProviderUseCase(
	credentials merchant.CredentialsRepository,
	logger logger.Interface,
) *DisconnectProviderUseCase {
	return &DisconnectProviderUseCase{
		credentials: credentials,
		logger:      logger,
	}
}

func (uc *DisconnectProviderUseCase) Execute(ctx context.Context, ownerID uint) error {
	if err := uc.credentials.Delete(ctx, ownerID); err != nil {
		return fmt.Errorf("failed to remove provider credentials: %w", err)
	}

	uc.logger.Infow("payment provider disconnected", "owner_id", ownerID)
	return nil
}
