package handlers

import (
	"context"

	"github.com/repogate-inc/repogate/internal/application/payment/gateway"
)

// webhookEventUseCase is the shape shared by all four webhook-driven
// use cases: payment success, cancellation, renewal, payment failure.
type webhookEventUseCase interface {
	Execute(ctx context.Context, event gateway.WebhookEvent) error
}
