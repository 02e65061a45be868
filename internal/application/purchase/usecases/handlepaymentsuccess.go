package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/repogate-inc/repogate/internal/application/access"
	"github.com/repogate-inc/repogate/internal/application/payment/gateway"
	"github.com/repogate-inc/repogate/internal/domain/catalog"
	purchasedomain "github.com/repogate-inc/repogate/internal/domain/purchase"
	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
	"github.com/repogate-inc/repogate/internal/shared/goroutine"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

// HandlePaymentSuccessUseCase reconciles a provider's payment-succeeded
// event: completes the purchase and grants collaborator access. The flow
// is idempotent under webhook redelivery and survives a crash between
// the completion write and the grant, which the retry sweep picks up.
type HandlePaymentSuccessUseCase struct {
	repos     catalog.Store
	purchases purchasedomain.Repository
	granter   CollaboratorGranter
	notifier  Notifier
	audit     AuditRecorder
	renewals  *HandleRenewalUseCase
	logger    logger.Interface
}

func NewHandlePaymentSuccessUseCase(
	repos catalog.Store,
	purchases purchasedomain.Repository,
	granter CollaboratorGranter,
	notifier Notifier,
	audit AuditRecorder,
	renewals *HandleRenewalUseCase,
	logger logger.Interface,
) *HandlePaymentSuccessUseCase {
	return &HandlePaymentSuccessUseCase{
		repos:     repos,
		purchases: purchases,
		granter:   granter,
		notifier:  notifier,
		audit:     audit,
		renewals:  renewals,
		logger:    logger,
	}
}

func (uc *HandlePaymentSuccessUseCase) Execute(ctx context.Context, event gateway.WebhookEvent) error {
	p, err := locatePurchase(ctx, uc.purchases, event)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			// Acknowledge: redelivering an unmatchable event will
			// never succeed.
			uc.logger.Warnw("payment webhook matched no purchase",
				"order_no", event.OrderNo,
				"repository_id", event.RepositoryID,
				"username", event.GitHubUsername,
			)
			uc.audit.Record(ctx, nil, vo.LogActionPaymentFailed, vo.LogStatusFailed,
				fmt.Sprintf("unmatched payment webhook: order_no=%q username=%q", event.OrderNo, event.GitHubUsername))
			return nil
		}
		return err
	}

	if p.AccessStatus() == vo.AccessStatusActive {
		// Providers whose success alert repeats every billing cycle
		// deliver renewals through this path; a redelivered first
		// charge stays a no-op.
		if event.Recurring {
			return uc.renewals.Execute(ctx, event)
		}
		uc.logger.Infow("payment webhook already processed", "order_no", p.OrderNo())
		return nil
	}
	if p.AccessStatus() == vo.AccessStatusRevoked {
		// A refund or cancellation won the race; success must not
		// resurrect access.
		uc.logger.Warnw("payment webhook for revoked purchase ignored", "order_no", p.OrderNo())
		return nil
	}

	p.SetProviderRefs(event.Provider, event.CustomerID, event.SubscriptionID, event.PaymentIntentID)
	if err := p.MarkCompleted(); err != nil {
		uc.logger.Warnw("purchase cannot complete", "order_no", p.OrderNo(), "status", p.Status(), "error", err)
		return nil
	}
	if err := uc.purchases.Update(ctx, p); err != nil {
		// A stale version means a concurrent delivery is already
		// handling this purchase; let the provider redeliver into the
		// idempotent path.
		return fmt.Errorf("failed to record completed payment: %w", err)
	}

	repo, err := uc.repos.GetByID(ctx, p.RepositoryID())
	if err != nil {
		return fmt.Errorf("failed to load repository %d: %w", p.RepositoryID(), err)
	}

	purchaseID := p.ID()
	grantErr := uc.granter.AddCollaboratorWithRetry(ctx, repo.GitHubOwner(), repo.GitHubRepoName(), p.GitHubUsername())
	if grantErr != nil {
		uc.audit.Record(ctx, &purchaseID, vo.LogActionCollaboratorAdded, vo.LogStatusFailed, grantErr.Error())

		if errors.Is(grantErr, access.ErrUserNotFound) {
			// Payment stays completed, access stays pending; an
			// operator resolves the username with the buyer.
			p.BlockGrant(grantErr.Error())
			if err := uc.purchases.Update(ctx, p); err != nil {
				return fmt.Errorf("failed to record blocked grant: %w", err)
			}
			uc.alertAdmin(p, repo, fmt.Sprintf("GitHub user %q does not exist; purchase %s is paid but ungranted.", p.GitHubUsername(), p.OrderNo()))
			return nil
		}

		if err := p.MarkFailed(fmt.Sprintf("collaborator grant failed: %s", grantErr)); err != nil {
			return err
		}
		if err := uc.purchases.Update(ctx, p); err != nil {
			return fmt.Errorf("failed to record grant failure: %w", err)
		}
		uc.alertAdmin(p, repo, fmt.Sprintf("Collaborator grant for purchase %s failed after retries: %s", p.OrderNo(), grantErr))
		return nil
	}

	if err := p.GrantAccess(); err != nil {
		return err
	}
	if err := uc.purchases.Update(ctx, p); err != nil {
		return fmt.Errorf("failed to record granted access: %w", err)
	}
	uc.audit.Record(ctx, &purchaseID, vo.LogActionCollaboratorAdded, vo.LogStatusSuccess, "")

	uc.logger.Infow("access granted",
		"order_no", p.OrderNo(),
		"repository", repo.Slug(),
		"username", p.GitHubUsername(),
		"amount_cents", p.AmountCents(),
	)

	if p.Email() != "" {
		email := p.Email()
		repoName := repo.Name()
		ghRepo := repo.GitHubOwner() + "/" + repo.GitHubRepoName()
		goroutine.SafeGo(uc.logger, "payment-success-granted-email", func() {
			sendCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			if err := uc.notifier.SendAccessGranted(sendCtx, email, repoName, ghRepo); err != nil {
				uc.audit.Record(sendCtx, &purchaseID, vo.LogActionEmailSentAccessGranted, vo.LogStatusFailed, err.Error())
				return
			}
			uc.audit.Record(sendCtx, &purchaseID, vo.LogActionEmailSentAccessGranted, vo.LogStatusSuccess, "")
		})
	}

	return nil
}

func (uc *HandlePaymentSuccessUseCase) alertAdmin(p *purchasedomain.Purchase, repo *catalog.Repository, body string) {
	orderNo := p.OrderNo()
	subject := fmt.Sprintf("Access grant needs attention: %s", repo.Slug())
	goroutine.SafeGo(uc.logger, "payment-success-admin-alert", func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := uc.notifier.SendAdminAlert(sendCtx, subject, body); err != nil {
			uc.logger.Warnw("failed to send admin alert", "order_no", orderNo, "error", err)
		}
	})
}

// locatePurchase resolves the purchase a webhook event refers to: by the
// round-tripped order reference first, then by subscription reference,
// then the most recent pending purchase for (repository, username).
func locatePurchase(ctx context.Context, purchases purchasedomain.Repository, event gateway.WebhookEvent) (*purchasedomain.Purchase, error) {
	if event.OrderNo != "" {
		p, err := purchases.GetByOrderNo(ctx, event.OrderNo)
		if err == nil {
			return p, nil
		}
		if !apperrors.IsNotFoundError(err) {
			return nil, err
		}
	}
	if event.SubscriptionID != "" {
		p, err := purchases.GetBySubscriptionID(ctx, event.SubscriptionID)
		if err == nil {
			return p, nil
		}
		if !apperrors.IsNotFoundError(err) {
			return nil, err
		}
	}
	if event.RepositoryID != 0 && event.GitHubUsername != "" {
		return purchases.GetLatestPendingByRepoAndUsername(ctx, event.RepositoryID, event.GitHubUsername)
	}
	return nil, apperrors.NewNotFoundError("purchase not found for webhook event")
}
