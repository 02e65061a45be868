// Package usecases implements merchant settings: connecting and
// disconnecting the payment provider an owner sells through.
package usecases

import (
	"context"
	"fmt"

	"github.com/repogate-inc/repogate/internal/domain/merchant"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

type ConnectProviderCommand struct {
	OwnerID  uint
	Provider merchant.Provider

	StripeSecretKey      string
	StripePublishableKey string
	LemonSqueezyAPIKey   string
	LemonSqueezyStoreID  string
	GumroadAccessToken   string
	PaddleVendorID       string
	PaddleAPIKey         string
}

// ConnectProviderUseCase stores an owner's provider credentials,
// replacing any previously configured provider. Credential values are
// validated for completeness here and encrypted by the repository; they
// are never logged.
type ConnectProviderUseCase struct {
	credentials merchant.CredentialsRepository
	logger      logger.Interface
}

func NewConnectProviderUseCase(
	credentials merchant.CredentialsRepository,
	logger logger.Interface,
) *ConnectProviderUseCase {
	return &ConnectProviderUseCase{
		credentials: credentials,
		logger:      logger,
	}
}

func (uc *ConnectProviderUseCase) Execute(ctx context.Context, cmd ConnectProviderCommand) error {
	var creds merchant.Credentials
	var err error

	switch cmd.Provider {
	case merchant.ProviderStripe:
		creds, err = merchant.NewStripeCredentials(cmd.StripeSecretKey, cmd.StripePublishableKey)
	case merchant.ProviderLemonSqueezy:
		creds, err = merchant.NewLemonSqueezyCredentials(cmd.LemonSqueezyAPIKey, cmd.LemonSqueezyStoreID)
	case merchant.ProviderGumroad:
		creds, err = merchant.NewGumroadCredentials(cmd.GumroadAccessToken)
	case merchant.ProviderPaddle:
		creds, err = merchant.NewPaddleCredentials(cmd.PaddleVendorID, cmd.PaddleAPIKey)
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unknown payment provider: %s", cmd.Provider))
	}
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	if err := uc.credentials.Save(ctx, cmd.OwnerID, creds); err != nil {
		return fmt.Errorf("failed to save provider credentials: %w", err)
	}

	uc.logger.Infow("payment provider connected",
		"owner_id", cmd.OwnerID,
		"provider", string(cmd.Provider),
	)

	return nil
}
