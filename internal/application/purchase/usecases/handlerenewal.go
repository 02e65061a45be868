package usecases

import (
	"context"

	"github.com/repogate-inc/repogate/internal/application/payment/gateway"
	"github.com/repogate-inc/repogate/internal/domain/catalog"
	purchasedomain "github.com/repogate-inc/repogate/internal/domain/purchase"
	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
	"github.com/repogate-inc/repogate/internal/shared/goroutine"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

// HandleRenewalUseCase acknowledges a successful subscription renewal
// charge. Access is already active; the purchase record does not change,
// only a renewal email and an audit entry are produced.
type HandleRenewalUseCase struct {
	repos     catalog.Store
	purchases purchasedomain.Repository
	notifier  Notifier
	audit     AuditRecorder
	logger    logger.Interface
}

func NewHandleRenewalUseCase(
	repos catalog.Store,
	purchases purchasedomain.Repository,
	notifier Notifier,
	audit AuditRecorder,
	logger logger.Interface,
) *HandleRenewalUseCase {
	return &HandleRenewalUseCase{
		repos:     repos,
		purchases: purchases,
		notifier:  notifier,
		audit:     audit,
		logger:    logger,
	}
}

func (uc *HandleRenewalUseCase) Execute(ctx context.Context, event gateway.WebhookEvent) error {
	p, err := locatePurchase(ctx, uc.purchases, event)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			uc.logger.Warnw("renewal webhook matched no purchase", "subscription_id", event.SubscriptionID)
			return nil
		}
		return err
	}

	uc.logger.Infow("subscription renewed",
		"order_no", p.OrderNo(),
		"subscription_id", event.SubscriptionID,
		"amount_cents", event.AmountCents,
	)

	if p.Email() == "" {
		return nil
	}

	purchaseID := p.ID()
	email := p.Email()
	repoName := ""
	if repo, err := uc.repos.GetByID(ctx, p.RepositoryID()); err == nil {
		repoName = repo.Name()
	} else {
		uc.logger.Warnw("failed to load repository for renewal email", "order_no", p.OrderNo(), "error", err)
	}
	goroutine.SafeGo(uc.logger, "renewal-email", func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := uc.notifier.SendRenewal(sendCtx, email, repoName); err != nil {
			uc.audit.Record(sendCtx, &purchaseID, vo.LogActionEmailSentRenewal, vo.LogStatusFailed, err.Error())
			return
		}
		uc.audit.Record(sendCtx, &purchaseID, vo.LogActionEmailSentRenewal, vo.LogStatusSuccess, "")
	})

	return nil
}
