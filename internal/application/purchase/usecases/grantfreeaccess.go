package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/repogate-inc/repogate/internal/application/access"
	"github.com/repogate-inc/repogate/internal/domain/catalog"
	purchasedomain "github.com/repogate-inc/repogate/internal/domain/purchase"
	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
	"github.com/repogate-inc/repogate/internal/shared/goroutine"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

type GrantFreeAccessCommand struct {
	RepositorySlug string
	Email          string
	GitHubUsername string
}

type GrantFreeAccessResult struct {
	OrderNo string
	// Granted is false when the invite is queued for the retry sweep
	// after a transient failure.
	Granted bool
}

// GrantFreeAccessUseCase grants collaborator access to a free repository
// inline, without a provider checkout.
type GrantFreeAccessUseCase struct {
	repos     catalog.Store
	purchases purchasedomain.Repository
	granter   CollaboratorGranter
	notifier  Notifier
	audit     AuditRecorder
	logger    logger.Interface
}

func NewGrantFreeAccessUseCase(
	repos catalog.Store,
	purchases purchasedomain.Repository,
	granter CollaboratorGranter,
	notifier Notifier,
	audit AuditRecorder,
	logger logger.Interface,
) *GrantFreeAccessUseCase {
	return &GrantFreeAccessUseCase{
		repos:     repos,
		purchases: purchases,
		granter:   granter,
		notifier:  notifier,
		audit:     audit,
		logger:    logger,
	}
}

func (uc *GrantFreeAccessUseCase) Execute(ctx context.Context, cmd GrantFreeAccessCommand) (*GrantFreeAccessResult, error) {
	if cmd.GitHubUsername == "" {
		return nil, apperrors.NewValidationError("github username is required")
	}

	repo, err := uc.repos.GetBySlug(ctx, cmd.RepositorySlug)
	if err != nil {
		return nil, err
	}
	if !repo.Active() {
		return nil, apperrors.NewNotFoundError("repository is not available")
	}
	if !repo.PricingType().IsFree() {
		return nil, apperrors.NewValidationError("repository is not free")
	}
	if repo.RequireEmailForFree() && cmd.Email == "" {
		return nil, apperrors.NewValidationError("email is required for this repository")
	}

	// Any prior purchase for the pair blocks a second request, including
	// one whose grant is still waiting on the retry sweep.
	existing, err := uc.purchases.GetByRepoAndUsername(ctx, repo.ID(), cmd.GitHubUsername)
	if err != nil && !apperrors.IsNotFoundError(err) {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("access has already been requested for this repository")
	}

	p, err := purchasedomain.NewFreePurchase(repo.ID(), cmd.Email, cmd.GitHubUsername)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := uc.purchases.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}
	purchaseID := p.ID()

	if err := uc.granter.AddCollaboratorWithRetry(ctx, repo.GitHubOwner(), repo.GitHubRepoName(), cmd.GitHubUsername); err != nil {
		uc.audit.Record(ctx, &purchaseID, vo.LogActionCollaboratorAdded, vo.LogStatusFailed, err.Error())

		if errors.Is(err, access.ErrUserNotFound) {
			p.BlockGrant(err.Error())
			if updateErr := uc.purchases.Update(ctx, p); updateErr != nil {
				uc.logger.Errorw("failed to record blocked grant", "order_no", p.OrderNo(), "error", updateErr)
			}
			return nil, apperrors.NewValidationError("github user does not exist")
		}

		// Transient failure: grant stays pending, the scheduler
		// retries it.
		uc.logger.Warnw("free access grant deferred to retry sweep",
			"order_no", p.OrderNo(),
			"repository", repo.Slug(),
			"error", err,
		)
		return &GrantFreeAccessResult{OrderNo: p.OrderNo(), Granted: false}, nil
	}

	if err := p.GrantAccess(); err != nil {
		return nil, err
	}
	if err := uc.purchases.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update purchase: %w", err)
	}
	uc.audit.Record(ctx, &purchaseID, vo.LogActionCollaboratorAdded, vo.LogStatusSuccess, "")

	uc.logger.Infow("free access granted",
		"order_no", p.OrderNo(),
		"repository", repo.Slug(),
		"username", cmd.GitHubUsername,
	)

	if cmd.Email != "" {
		email := cmd.Email
		repoName := repo.Name()
		ghRepo := repo.GitHubOwner() + "/" + repo.GitHubRepoName()
		goroutine.SafeGo(uc.logger, "free-access-granted-email", func() {
			sendCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			if err := uc.notifier.SendAccessGranted(sendCtx, email, repoName, ghRepo); err != nil {
				uc.audit.Record(sendCtx, &purchaseID, vo.LogActionEmailSentAccessGranted, vo.LogStatusFailed, err.Error())
				return
			}
			uc.audit.Record(sendCtx, &purchaseID, vo.LogActionEmailSentAccessGranted, vo.LogStatusSuccess, "")
		})
	}

	return &GrantFreeAccessResult{OrderNo: p.OrderNo(), Granted: true}, nil
}
