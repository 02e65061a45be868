package usecases

import (
	"context"
	"fmt"

	"github.com/repogate-inc/repogate/internal/application/payment/gateway"
	"github.com/repogate-inc/repogate/internal/domain/catalog"
	purchasedomain "github.com/repogate-inc/repogate/internal/domain/purchase"
	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
	"github.com/repogate-inc/repogate/internal/shared/goroutine"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

// HandleSubscriptionCanceledUseCase revokes access when a subscription
// ends or a payment is refunded. The collaborator removal is best
// effort: a GitHub failure never leaves the purchase marked active.
type HandleSubscriptionCanceledUseCase struct {
	repos     catalog.Store
	purchases purchasedomain.Repository
	granter   CollaboratorGranter
	notifier  Notifier
	audit     AuditRecorder
	logger    logger.Interface
}

func NewHandleSubscriptionCanceledUseCase(
	repos catalog.Store,
	purchases purchasedomain.Repository,
	granter CollaboratorGranter,
	notifier Notifier,
	audit AuditRecorder,
	logger logger.Interface,
) *HandleSubscriptionCanceledUseCase {
	return &HandleSubscriptionCanceledUseCase{
		repos:     repos,
		purchases: purchases,
		granter:   granter,
		notifier:  notifier,
		audit:     audit,
		logger:    logger,
	}
}

func (uc *HandleSubscriptionCanceledUseCase) Execute(ctx context.Context, event gateway.WebhookEvent) error {
	p, err := uc.locate(ctx, event)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			uc.logger.Warnw("cancellation webhook matched no purchase",
				"subscription_id", event.SubscriptionID,
				"username", event.GitHubUsername,
			)
			return nil
		}
		return err
	}

	if p.AccessStatus() == vo.AccessStatusRevoked {
		uc.logger.Infow("cancellation already processed", "order_no", p.OrderNo())
		return nil
	}

	repo, err := uc.repos.GetByID(ctx, p.RepositoryID())
	if err != nil {
		return fmt.Errorf("failed to load repository %d: %w", p.RepositoryID(), err)
	}

	purchaseID := p.ID()
	if p.AccessStatus() == vo.AccessStatusActive {
		if err := uc.granter.RemoveCollaborator(ctx, repo.GitHubOwner(), repo.GitHubRepoName(), p.GitHubUsername()); err != nil {
			uc.audit.Record(ctx, &purchaseID, vo.LogActionCollaboratorRemoved, vo.LogStatusFailed, err.Error())
		} else {
			uc.audit.Record(ctx, &purchaseID, vo.LogActionCollaboratorRemoved, vo.LogStatusSuccess, "")
		}
	}

	reason := purchasedomain.RevocationReasonSubscriptionCanceled
	if event.Detail != "" {
		reason = event.Detail
	}
	if err := p.RevokeAccess(reason, nil); err != nil {
		return err
	}
	if err := p.MarkCanceled(); err != nil {
		return err
	}
	if err := uc.purchases.Update(ctx, p); err != nil {
		return fmt.Errorf("failed to record revocation: %w", err)
	}

	uc.logger.Infow("access revoked",
		"order_no", p.OrderNo(),
		"repository", repo.Slug(),
		"username", p.GitHubUsername(),
		"reason", reason,
	)

	if p.Email() != "" {
		email := p.Email()
		repoName := repo.Name()
		goroutine.SafeGo(uc.logger, "cancellation-revocation-email", func() {
			sendCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			if err := uc.notifier.SendRevocation(sendCtx, email, repoName, reason); err != nil {
				uc.audit.Record(sendCtx, &purchaseID, vo.LogActionEmailSentRevocation, vo.LogStatusFailed, err.Error())
				return
			}
			uc.audit.Record(sendCtx, &purchaseID, vo.LogActionEmailSentRevocation, vo.LogStatusSuccess, "")
		})
	}

	return nil
}

func (uc *HandleSubscriptionCanceledUseCase) locate(ctx context.Context, event gateway.WebhookEvent) (*purchasedomain.Purchase, error) {
	if event.SubscriptionID != "" {
		p, err := uc.purchases.GetBySubscriptionID(ctx, event.SubscriptionID)
		if err == nil {
			return p, nil
		}
		if !apperrors.IsNotFoundError(err) {
			return nil, err
		}
	}
	if event.OrderNo != "" {
		p, err := uc.purchases.GetByOrderNo(ctx, event.OrderNo)
		if err == nil {
			return p, nil
		}
		if !apperrors.IsNotFoundError(err) {
			return nil, err
		}
	}
	if event.RepositoryID != 0 && event.GitHubUsername != "" {
		return uc.purchases.GetActiveByRepoAndUsername(ctx, event.RepositoryID, event.GitHubUsername)
	}
	return nil, apperrors.NewNotFoundError("purchase not found for cancellation event")
}
