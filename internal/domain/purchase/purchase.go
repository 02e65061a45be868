// Package purchase models one buyer's attempt to obtain access to one
// repository. A purchase carries two orthogonal lifecycle axes: Status
// tracks the money (pending, completed, failed, canceled) and AccessStatus
// tracks the collaborator grant (pending, active, revoked). The invariant
// accessStatus == active implies status == completed holds after every
// transition, and revoked is terminal for the access axis: regaining
// access requires a brand-new purchase, never a reopened one.
package purchase

import (
	"fmt"
	"time"

	"github.com/repogate-inc/repogate/internal/domain/merchant"
	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	"github.com/repogate-inc/repogate/internal/shared/biztime"
	"github.com/repogate-inc/repogate/internal/shared/id"
)

// Revocation reasons written by automated flows.
const (
	RevocationReasonSubscriptionCanceled = "subscription_canceled"
	RevocationReasonRefunded             = "refunded"
	RevocationReasonManual               = "revoked_by_admin"
)

// metadataKeyGrantPending flags completed purchases whose collaborator
// grant has not succeeded yet; the scheduler sweeps on it.
// metadataKeyGrantBlocked records why a pending grant was taken out of
// the retry sweep (e.g. the username does not exist).
const (
	metadataKeyGrantPending = "access_grant_pending"
	metadataKeyGrantBlocked = "access_grant_blocked"
)

type Purchase struct {
	id           uint
	orderNo      string
	repositoryID uint
	productID    *uint

	provider        merchant.Provider
	customerID      *string
	subscriptionID  *string
	paymentIntentID *string

	email          string
	githubUsername string
	purchaseType   vo.PurchaseType
	amountCents    int64

	status       vo.Status
	accessStatus vo.AccessStatus

	accessGrantedAt  *time.Time
	revokedAt        *time.Time
	revokedBy        *uint
	revocationReason *string

	metadata map[string]interface{}

	// version counts mutations; loadedVersion is the value the row held
	// when the aggregate was loaded and is what optimistic writes guard
	// on, however many mutations the flow applied in between.
	version       int
	loadedVersion int

	createdAt time.Time
	updatedAt time.Time
}

// NewPurchase creates a pending/pending purchase at checkout initiation.
func NewPurchase(repositoryID uint, email, githubUsername string, purchaseType vo.PurchaseType, amountCents int64) (*Purchase, error) {
	if email == "" {
		return nil, fmt.Errorf("buyer email is required")
	}
	return newPurchase(repositoryID, email, githubUsername, purchaseType, amountCents)
}

// NewFreePurchase creates a completed/pending purchase for a free
// repository; the grant is attempted inline rather than webhook-driven.
// Email may be empty unless the repository requires one, which callers
// enforce before constructing.
func NewFreePurchase(repositoryID uint, email, githubUsername string) (*Purchase, error) {
	p, err := newPurchase(repositoryID, email, githubUsername, vo.PurchaseTypeOneTime, 0)
	if err != nil {
		return nil, err
	}
	p.status = vo.StatusCompleted
	p.metadata[metadataKeyGrantPending] = true
	return p, nil
}

func newPurchase(repositoryID uint, email, githubUsername string, purchaseType vo.PurchaseType, amountCents int64) (*Purchase, error) {
	if repositoryID == 0 {
		return nil, fmt.Errorf("repository ID is required")
	}
	if githubUsername == "" {
		return nil, fmt.Errorf("github username is required")
	}
	if !purchaseType.IsValid() {
		return nil, fmt.Errorf("invalid purchase type: %s", purchaseType)
	}
	if amountCents < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}

	now := biztime.NowUTC()
	return &Purchase{
		orderNo:        id.MustGenerateWithPrefix(id.PrefixPurchase, id.DefaultLength),
		repositoryID:   repositoryID,
		email:          email,
		githubUsername: githubUsername,
		purchaseType:   purchaseType,
		amountCents:    amountCents,
		status:         vo.StatusPending,
		accessStatus:   vo.AccessStatusPending,
		metadata:       make(map[string]interface{}),
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

func (p *Purchase) ID() uint                          { return p.id }
func (p *Purchase) OrderNo() string                   { return p.orderNo }
func (p *Purchase) RepositoryID() uint                { return p.repositoryID }
func (p *Purchase) ProductID() *uint                  { return p.productID }
func (p *Purchase) Provider() merchant.Provider       { return p.provider }
func (p *Purchase) CustomerID() *string               { return p.customerID }
func (p *Purchase) SubscriptionID() *string           { return p.subscriptionID }
func (p *Purchase) PaymentIntentID() *string          { return p.paymentIntentID }
func (p *Purchase) Email() string                     { return p.email }
func (p *Purchase) GitHubUsername() string            { return p.githubUsername }
func (p *Purchase) PurchaseType() vo.PurchaseType     { return p.purchaseType }
func (p *Purchase) AmountCents() int64                { return p.amountCents }
func (p *Purchase) Status() vo.Status                 { return p.status }
func (p *Purchase) AccessStatus() vo.AccessStatus     { return p.accessStatus }
func (p *Purchase) AccessGrantedAt() *time.Time       { return p.accessGrantedAt }
func (p *Purchase) RevokedAt() *time.Time             { return p.revokedAt }
func (p *Purchase) RevokedBy() *uint                  { return p.revokedBy }
func (p *Purchase) RevocationReason() *string         { return p.revocationReason }
func (p *Purchase) Metadata() map[string]interface{}  { return p.metadata }
func (p *Purchase) Version() int                      { return p.version }
func (p *Purchase) LoadedVersion() int                { return p.loadedVersion }
func (p *Purchase) CreatedAt() time.Time              { return p.createdAt }
func (p *Purchase) UpdatedAt() time.Time              { return p.updatedAt }

// SetID sets the purchase ID after persistence (used by the repository
// after Create).
func (p *Purchase) SetID(id uint) { p.id = id }

// CommitVersion records that the current version has been persisted.
// Repositories call it after a successful write so a later write on the
// same aggregate guards against the row state it just produced.
func (p *Purchase) CommitVersion() { p.loadedVersion = p.version }

// SetProductID links the purchase to the catalog product record.
func (p *Purchase) SetProductID(productID uint) {
	p.productID = &productID
	p.touch()
}

// SetProviderRefs records the provider-assigned identifiers recovered from
// a webhook. The slots are provider-agnostic and reused across adapters;
// empty strings leave the current value untouched.
func (p *Purchase) SetProviderRefs(provider merchant.Provider, customerID, subscriptionID, paymentIntentID string) {
	if provider != "" {
		p.provider = provider
	}
	if customerID != "" {
		p.customerID = &customerID
	}
	if subscriptionID != "" {
		p.subscriptionID = &subscriptionID
	}
	if paymentIntentID != "" {
		p.paymentIntentID = &paymentIntentID
	}
	p.touch()
}

// MarkCompleted transitions the payment axis pending -> completed and
// flags the grant as pending so a crash between the two persisted steps is
// recoverable by the scheduler. Re-delivery of the same webhook is a
// no-op once completed.
func (p *Purchase) MarkCompleted() error {
	if p.status == vo.StatusCompleted {
		return nil
	}
	if p.status != vo.StatusPending {
		return fmt.Errorf("cannot complete purchase with status %s", p.status)
	}
	p.status = vo.StatusCompleted
	p.metadata[metadataKeyGrantPending] = true
	p.touch()
	return nil
}

// MarkFailed transitions the payment axis to failed. Also used after
// exhausted grant retries, where the payment itself succeeded but the
// failed status signals operator attention.
func (p *Purchase) MarkFailed(reason string) error {
	if p.status == vo.StatusCanceled {
		return fmt.Errorf("cannot fail purchase with status %s", p.status)
	}
	p.status = vo.StatusFailed
	if reason != "" {
		p.metadata["failure_reason"] = reason
	}
	p.touch()
	return nil
}

// MarkCanceled transitions the payment axis to canceled. Idempotent.
func (p *Purchase) MarkCanceled() error {
	if p.status == vo.StatusCanceled {
		return nil
	}
	p.status = vo.StatusCanceled
	p.touch()
	return nil
}

// GrantAccess transitions the access axis pending -> active. Requires a
// completed payment; re-running an already active purchase is a no-op,
// and a revoked purchase can never go back to active.
func (p *Purchase) GrantAccess() error {
	if p.accessStatus == vo.AccessStatusActive {
		return nil
	}
	if p.accessStatus == vo.AccessStatusRevoked {
		return fmt.Errorf("cannot grant access on a revoked purchase")
	}
	if p.status != vo.StatusCompleted {
		return fmt.Errorf("cannot grant access with payment status %s", p.status)
	}
	now := biztime.NowUTC()
	p.accessStatus = vo.AccessStatusActive
	p.accessGrantedAt = &now
	delete(p.metadata, metadataKeyGrantPending)
	p.touch()
	return nil
}

// RevokeAccess transitions the access axis to revoked. One-way: repeated
// revocations are no-ops. A revocation must carry either an acting admin
// (manual) or a reason (automated).
func (p *Purchase) RevokeAccess(reason string, revokedBy *uint) error {
	if p.accessStatus == vo.AccessStatusRevoked {
		return nil
	}
	if reason == "" && revokedBy == nil {
		return fmt.Errorf("revocation requires a reason or an acting admin")
	}
	now := biztime.NowUTC()
	p.accessStatus = vo.AccessStatusRevoked
	p.revokedAt = &now
	p.revokedBy = revokedBy
	if reason != "" {
		p.revocationReason = &reason
	}
	delete(p.metadata, metadataKeyGrantPending)
	p.touch()
	return nil
}

// GrantPending reports whether the purchase is completed but still owes
// the buyer a collaborator grant.
func (p *Purchase) GrantPending() bool {
	v, ok := p.metadata[metadataKeyGrantPending].(bool)
	return ok && v
}

// BlockGrant takes a pending grant out of the retry sweep, recording why.
// Access stays pending; an operator resolves it manually.
func (p *Purchase) BlockGrant(reason string) {
	delete(p.metadata, metadataKeyGrantPending)
	p.metadata[metadataKeyGrantBlocked] = reason
	p.touch()
}

// GrantBlockedReason returns the recorded block reason, empty when the
// grant is not blocked.
func (p *Purchase) GrantBlockedReason() string {
	v, _ := p.metadata[metadataKeyGrantBlocked].(string)
	return v
}

// SetMetadata sets a metadata key-value pair.
func (p *Purchase) SetMetadata(key string, value interface{}) {
	if p.metadata == nil {
		p.metadata = make(map[string]interface{})
	}
	p.metadata[key] = value
	p.touch()
}

func (p *Purchase) touch() {
	p.updatedAt = biztime.NowUTC()
	p.version++
}

// PurchaseReconstructParams carries persisted state back into the domain.
type PurchaseReconstructParams struct {
	ID               uint
	OrderNo          string
	RepositoryID     uint
	ProductID        *uint
	Provider         merchant.Provider
	CustomerID       *string
	SubscriptionID   *string
	PaymentIntentID  *string
	Email            string
	GitHubUsername   string
	PurchaseType     vo.PurchaseType
	AmountCents      int64
	Status           vo.Status
	AccessStatus     vo.AccessStatus
	AccessGrantedAt  *time.Time
	RevokedAt        *time.Time
	RevokedBy        *uint
	RevocationReason *string
	Metadata         map[string]interface{}
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ReconstructPurchase rebuilds a Purchase from persistence.
func ReconstructPurchase(params PurchaseReconstructParams) *Purchase {
	metadata := params.Metadata
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return &Purchase{
		id:               params.ID,
		orderNo:          params.OrderNo,
		repositoryID:     params.RepositoryID,
		productID:        params.ProductID,
		provider:         params.Provider,
		customerID:       params.CustomerID,
		subscriptionID:   params.SubscriptionID,
		paymentIntentID:  params.PaymentIntentID,
		email:            params.Email,
		githubUsername:   params.GitHubUsername,
		purchaseType:     params.PurchaseType,
		amountCents:      params.AmountCents,
		status:           params.Status,
		accessStatus:     params.AccessStatus,
		accessGrantedAt:  params.AccessGrantedAt,
		revokedAt:        params.RevokedAt,
		revokedBy:        params.RevokedBy,
		revocationReason: params.RevocationReason,
		metadata:         metadata,
		version:          params.Version,
		loadedVersion:    params.Version,
		createdAt:        params.CreatedAt,
		updatedAt:        params.UpdatedAt,
	}
}
