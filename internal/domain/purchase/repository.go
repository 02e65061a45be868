package purchase

import (
	"context"
	"errors"

	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
)

// ErrStaleVersion is returned by Update when the row changed since the
// aggregate was loaded.
var ErrStaleVersion = errors.New("purchase was modified concurrently")

// Repository persists purchases.
//
// Update performs an optimistic-concurrency write: the row is updated only
// if its stored version matches the aggregate's pre-mutation version, and
// ErrStaleVersion is returned when a concurrent writer got there first.
// Callers reload and re-apply rather than overwrite.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	Update(ctx context.Context, p *Purchase) error

	GetByID(ctx context.Context, id uint) (*Purchase, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*Purchase, error)

	// GetBySubscriptionID resolves subscription lifecycle webhooks that
	// carry only the provider subscription reference.
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*Purchase, error)

	// GetActiveByRepoAndUsername returns the purchase currently holding
	// access for the pair, used to resolve cancellations that arrive
	// without a subscription reference.
	GetActiveByRepoAndUsername(ctx context.Context, repositoryID uint, githubUsername string) (*Purchase, error)

	// GetByRepoAndUsername returns the most recent purchase for the pair
	// regardless of status. Free-access requests gate on it so a request
	// whose grant is still pending cannot be filed twice.
	GetByRepoAndUsername(ctx context.Context, repositoryID uint, githubUsername string) (*Purchase, error)

	// GetLatestPendingByRepoAndUsername is the fallback lookup for
	// providers that cannot round-trip the purchase reference through
	// checkout metadata. Returns the most recently created pending
	// purchase for the pair.
	GetLatestPendingByRepoAndUsername(ctx context.Context, repositoryID uint, githubUsername string) (*Purchase, error)

	// ListGrantPending returns completed purchases whose collaborator
	// grant has not happened yet, oldest first, for the recovery sweep.
	ListGrantPending(ctx context.Context, limit int) ([]*Purchase, error)

	ListByRepositoryID(ctx context.Context, repositoryID uint) ([]*Purchase, error)
	ListByAccessStatus(ctx context.Context, status vo.AccessStatus) ([]*Purchase, error)
	CountActiveByRepositoryID(ctx context.Context, repositoryID uint) (int64, error)
}

// AccessLogRepository persists the append-only audit trail.
type AccessLogRepository interface {
	Create(ctx context.Context, entry *AccessLogEntry) error
	ListByPurchaseID(ctx context.Context, purchaseID uint) ([]*AccessLogEntry, error)
}
