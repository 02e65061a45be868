package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/repogate-inc/repogate/internal/application/access"
	"github.com/repogate-inc/repogate/internal/domain/catalog"
	purchasedomain "github.com/repogate-inc/repogate/internal/domain/purchase"
	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	"github.com/repogate-inc/repogate/internal/shared/goroutine"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

// RetryPendingGrantsUseCase sweeps completed purchases whose collaborator
// grant never landed, typically after a crash between the payment write
// and the GitHub call, or after transient GitHub failures. Driven by the
// scheduler.
type RetryPendingGrantsUseCase struct {
	repos     catalog.Store
	purchases purchasedomain.Repository
	granter   CollaboratorGranter
	notifier  Notifier
	audit     AuditRecorder
	logger    logger.Interface
}

type RetryPendingGrantsResult struct {
	Checked int
	Granted int
	Blocked int
	Failed  int
}

func NewRetryPendingGrantsUseCase(
	repos catalog.Store,
	purchases purchasedomain.Repository,
	granter CollaboratorGranter,
	notifier Notifier,
	audit AuditRecorder,
	logger logger.Interface,
) *RetryPendingGrantsUseCase {
	return &RetryPendingGrantsUseCase{
		repos:     repos,
		purchases: purchases,
		granter:   granter,
		notifier:  notifier,
		audit:     audit,
		logger:    logger,
	}
}

func (uc *RetryPendingGrantsUseCase) Execute(ctx context.Context, limit int) (*RetryPendingGrantsResult, error) {
	pending, err := uc.purchases.ListGrantPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending grants: %w", err)
	}

	result := &RetryPendingGrantsResult{Checked: len(pending)}
	for _, p := range pending {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if err := uc.retryOne(ctx, p); err != nil {
			if errors.Is(err, errGrantBlocked) {
				result.Blocked++
				continue
			}
			result.Failed++
			uc.logger.Warnw("pending grant retry failed, will retry next sweep",
				"order_no", p.OrderNo(),
				"error", err,
			)
			continue
		}
		result.Granted++
	}

	if result.Checked > 0 {
		uc.logger.Infow("pending grant sweep finished",
			"checked", result.Checked,
			"granted", result.Granted,
			"blocked", result.Blocked,
			"failed", result.Failed,
		)
	}
	return result, nil
}

var errGrantBlocked = errors.New("grant blocked")

func (uc *RetryPendingGrantsUseCase) retryOne(ctx context.Context, p *purchasedomain.Purchase) error {
	repo, err := uc.repos.GetByID(ctx, p.RepositoryID())
	if err != nil {
		return fmt.Errorf("failed to load repository %d: %w", p.RepositoryID(), err)
	}

	purchaseID := p.ID()
	if err := uc.granter.AddCollaboratorWithRetry(ctx, repo.GitHubOwner(), repo.GitHubRepoName(), p.GitHubUsername()); err != nil {
		uc.audit.Record(ctx, &purchaseID, vo.LogActionCollaboratorAdded, vo.LogStatusRetry, err.Error())

		if errors.Is(err, access.ErrUserNotFound) {
			p.BlockGrant(err.Error())
			if updateErr := uc.purchases.Update(ctx, p); updateErr != nil {
				return updateErr
			}
			uc.alertAdmin(p, repo)
			return errGrantBlocked
		}
		return err
	}

	if err := p.GrantAccess(); err != nil {
		return err
	}
	if err := uc.purchases.Update(ctx, p); err != nil {
		return fmt.Errorf("failed to record granted access: %w", err)
	}
	uc.audit.Record(ctx, &purchaseID, vo.LogActionCollaboratorAdded, vo.LogStatusSuccess, "recovered by retry sweep")

	uc.logger.Infow("pending grant recovered",
		"order_no", p.OrderNo(),
		"repository", repo.Slug(),
		"username", p.GitHubUsername(),
	)

	if p.Email() != "" {
		email := p.Email()
		repoName := repo.Name()
		ghRepo := repo.GitHubOwner() + "/" + repo.GitHubRepoName()
		goroutine.SafeGo(uc.logger, "retry-grant-email", func() {
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

func (uc *RetryPendingGrantsUseCase) alertAdmin(p *purchasedomain.Purchase, repo *catalog.Repository) {
	orderNo := p.OrderNo()
	subject := fmt.Sprintf("Access grant needs attention: %s", repo.Slug())
	body := fmt.Sprintf("GitHub user %q does not exist; purchase %s is paid but ungranted.", p.GitHubUsername(), orderNo)
	goroutine.SafeGo(uc.logger, "retry-grant-admin-alert", func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := uc.notifier.SendAdminAlert(sendCtx, subject, body); err != nil {
			uc.logger.Warnw("failed to send admin alert", "order_no", orderNo, "error", err)
		}
	})
}
