package payment

import (
	"fmt"

	"github.com/repogate-inc/repogate/internal/application/payment/gateway"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	"github.com/repogate-inc/repogate/internal/shared/config"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

// GatewayFactory builds provider adapters wired with the platform-level
// webhook verification material from configuration.
type GatewayFactory struct {
	cfg    *config.PaymentsConfig
	logger logger.Interface
}

var _ gateway.Factory = (*GatewayFactory)(nil)

func NewGatewayFactory(cfg *config.PaymentsConfig, logger logger.Interface) *GatewayFactory {
	return &GatewayFactory{cfg: cfg, logger: logger}
}

func (f *GatewayFactory) New(provider merchant.Provider) (gateway.Gateway, error) {
	switch provider {
	case merchant.ProviderStripe:
		return NewStripeGateway(f.cfg.StripeWebhookSecret, f.logger), nil
	case merchant.ProviderLemonSqueezy:
		return NewLemonSqueezyGateway(f.cfg.LemonSqueezySigningSecret, f.logger), nil
	case merchant.ProviderGumroad:
		return NewGumroadGateway(f.cfg.WebhookSharedToken, f.logger), nil
	case merchant.ProviderPaddle:
		return NewPaddleGateway(f.cfg.WebhookSharedToken, f.logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", gateway.ErrUnsupportedProvider, provider)
	}
}

func (f *GatewayFactory) NewInitialized(provider merchant.Provider, creds merchant.Credentials) (gateway.Gateway, error) {
	gw, err := f.New(provider)
	if err != nil {
		return nil, err
	}
	if err := gw.Initialize(creds); err != nil {
		return nil, err
	}
	return gw, nil
}
