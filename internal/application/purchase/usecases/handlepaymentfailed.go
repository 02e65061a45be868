package usecases

import (
	"context"
	"fmt"

	"github.com/repogate-inc/repogate/internal/application/payment/gateway"
	purchasedomain "github.com/repogate-inc/repogate/internal/domain/purchase"
	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
	"github.com/repogate-inc/repogate/internal/shared/goroutine"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

// HandlePaymentFailedUseCase records a failed charge and alerts the
// operator. Purchase state is untouched: a failed renewal charge does
// not revoke access by itself, the provider follows up with a
// cancellation event when the subscription actually ends.
type HandlePaymentFailedUseCase struct {
	purchases purchasedomain.Repository
	notifier  Notifier
	audit     AuditRecorder
	logger    logger.Interface
}

func NewHandlePaymentFailedUseCase(
	purchases purchasedomain.Repository,
	notifier Notifier,
	audit AuditRecorder,
	logger logger.Interface,
) *HandlePaymentFailedUseCase {
	return &HandlePaymentFailedUseCase{
		purchases: purchases,
		notifier:  notifier,
		audit:     audit,
		logger:    logger,
	}
}

func (uc *HandlePaymentFailedUseCase) Execute(ctx context.Context, event gateway.WebhookEvent) error {
	detail := event.Detail
	if detail == "" {
		detail = "payment failed"
	}

	var purchaseID *uint
	p, err := locatePurchase(ctx, uc.purchases, event)
	switch {
	case err == nil:
		pid := p.ID()
		purchaseID = &pid
		uc.logger.Warnw("payment failed",
			"order_no", p.OrderNo(),
			"subscription_id", event.SubscriptionID,
			"detail", detail,
		)
	case apperrors.IsNotFoundError(err):
		uc.logger.Warnw("payment failure webhook matched no purchase",
			"subscription_id", event.SubscriptionID,
			"detail", detail,
		)
	default:
		return err
	}

	uc.audit.Record(ctx, purchaseID, vo.LogActionPaymentFailed, vo.LogStatusFailed, detail)

	subject := "Payment failure reported"
	body := fmt.Sprintf("Provider %s reported a failed payment: %s", event.Provider, detail)
	if p != nil {
		body = fmt.Sprintf("%s (purchase %s, user %s)", body, p.OrderNo(), p.GitHubUsername())
	}
	goroutine.SafeGo(uc.logger, "payment-failed-admin-alert", func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := uc.notifier.SendAdminAlert(sendCtx, subject, body); err != nil {
			uc.logger.Warnw("failed to send admin alert", "error", err)
		}
	})

	return nil
}
