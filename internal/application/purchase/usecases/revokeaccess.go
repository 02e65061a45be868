package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/repogate-inc/repogate/internal/application/payment/gateway"
	"github.com/repogate-inc/repogate/internal/domain/catalog"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	purchasedomain "github.com/repogate-inc/repogate/internal/domain/purchase"
	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
	"github.com/repogate-inc/repogate/internal/shared/goroutine"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

type RevokeAccessCommand struct {
	PurchaseID uint
	// ActorID is the repository owner performing the revocation.
	ActorID uint
	Reason  string
}

// RevokeAccessUseCase is the owner-initiated revocation: removes the
// collaborator, cancels any remote subscription, and marks the purchase
// revoked with the acting owner recorded.
type RevokeAccessUseCase struct {
	repos       catalog.Store
	purchases   purchasedomain.Repository
	credentials merchant.CredentialsRepository
	gateways    gateway.Factory
	granter     CollaboratorGranter
	notifier    Notifier
	audit       AuditRecorder
	logger      logger.Interface
}

func NewRevokeAccessUseCase(
	repos catalog.Store,
	purchases purchasedomain.Repository,
	credentials merchant.CredentialsRepository,
	gateways gateway.Factory,
	granter CollaboratorGranter,
	notifier Notifier,
	audit AuditRecorder,
	logger logger.Interface,
) *RevokeAccessUseCase {
	return &RevokeAccessUseCase{
		repos:       repos,
		purchases:   purchases,
		credentials: credentials,
		gateways:    gateways,
		granter:     granter,
		notifier:    notifier,
		audit:       audit,
		logger:      logger,
	}
}

func (uc *RevokeAccessUseCase) Execute(ctx context.Context, cmd RevokeAccessCommand) error {
	p, err := uc.purchases.GetByID(ctx, cmd.PurchaseID)
	if err != nil {
		return err
	}

	repo, err := uc.repos.GetByID(ctx, p.RepositoryID())
	if err != nil {
		return fmt.Errorf("failed to load repository %d: %w", p.RepositoryID(), err)
	}
	if repo.OwnerID() != cmd.ActorID {
		return apperrors.NewForbiddenError("only the repository owner can revoke access")
	}

	if p.AccessStatus() == vo.AccessStatusRevoked {
		return nil
	}

	purchaseID := p.ID()
	if p.AccessStatus() == vo.AccessStatusActive {
		if err := uc.granter.RemoveCollaborator(ctx, repo.GitHubOwner(), repo.GitHubRepoName(), p.GitHubUsername()); err != nil {
			uc.audit.Record(ctx, &purchaseID, vo.LogActionCollaboratorRemoved, vo.LogStatusFailed, err.Error())
		} else {
			uc.audit.Record(ctx, &purchaseID, vo.LogActionCollaboratorRemoved, vo.LogStatusSuccess, "")
		}
	}

	uc.cancelRemoteSubscription(ctx, p, repo)

	reason := cmd.Reason
	if reason == "" {
		reason = purchasedomain.RevocationReasonManual
	}
	actorID := cmd.ActorID
	if err := p.RevokeAccess(reason, &actorID); err != nil {
		return err
	}
	if p.PurchaseType() == vo.PurchaseTypeSubscription {
		if err := p.MarkCanceled(); err != nil {
			return err
		}
	}
	if err := uc.purchases.Update(ctx, p); err != nil {
		return fmt.Errorf("failed to record revocation: %w", err)
	}

	uc.logger.Infow("access revoked by owner",
		"order_no", p.OrderNo(),
		"repository", repo.Slug(),
		"username", p.GitHubUsername(),
		"actor_id", cmd.ActorID,
	)

	if p.Email() != "" {
		email := p.Email()
		repoName := repo.Name()
		goroutine.SafeGo(uc.logger, "manual-revocation-email", func() {
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

// cancelRemoteSubscription stops future charges when revoking an active
// subscription. Best effort: a provider failure is logged, the local
// revocation still proceeds.
func (uc *RevokeAccessUseCase) cancelRemoteSubscription(ctx context.Context, p *purchasedomain.Purchase, repo *catalog.Repository) {
	if p.PurchaseType() != vo.PurchaseTypeSubscription || p.SubscriptionID() == nil {
		return
	}

	creds, err := uc.credentials.GetByOwnerID(ctx, repo.OwnerID())
	if err != nil || creds.IsZero() {
		uc.logger.Warnw("cannot cancel remote subscription without credentials",
			"order_no", p.OrderNo(),
			"error", err,
		)
		return
	}
	gw, err := uc.gateways.NewInitialized(p.Provider(), creds)
	if err != nil {
		uc.logger.Warnw("cannot build gateway for subscription cancel", "order_no", p.OrderNo(), "error", err)
		return
	}
	if err := gw.CancelSubscription(ctx, *p.SubscriptionID()); err != nil {
		if errors.Is(err, gateway.ErrUnsupportedOperation) {
			uc.logger.Infow("provider does not support remote cancellation",
				"order_no", p.OrderNo(),
				"provider", p.Provider(),
			)
			return
		}
		uc.logger.Errorw("remote subscription cancel failed",
			"order_no", p.OrderNo(),
			"subscription_id", *p.SubscriptionID(),
			"error", err,
		)
	}
}
