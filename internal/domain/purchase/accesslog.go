package purchase

import (
	"fmt"
	"time"

	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	"github.com/repogate-inc/repogate/internal/shared/biztime"
)

// AccessLogEntry is an append-only audit record of a side effect taken on
// behalf of a purchase (collaborator changes, emails, payment failures).
// Entries are immutable once created.
type AccessLogEntry struct {
	id         uint
	purchaseID *uint
	action     vo.LogAction
	status     vo.LogStatus
	details    *string
	createdAt  time.Time
}

// NewAccessLogEntry creates an audit entry. purchaseID may be nil for
// side effects attempted before a purchase record exists.
func NewAccessLogEntry(purchaseID *uint, action vo.LogAction, status vo.LogStatus, details string) (*AccessLogEntry, error) {
	if !action.IsValid() {
		return nil, fmt.Errorf("invalid log action: %s", action)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid log status: %s", status)
	}
	e := &AccessLogEntry{
		purchaseID: purchaseID,
		action:     action,
		status:     status,
		createdAt:  biztime.NowUTC(),
	}
	if details != "" {
		e.details = &details
	}
	return e, nil
}

func (e *AccessLogEntry) ID() uint             { return e.id }
func (e *AccessLogEntry) PurchaseID() *uint    { return e.purchaseID }
func (e *AccessLogEntry) Action() vo.LogAction { return e.action }
func (e *AccessLogEntry) Status() vo.LogStatus { return e.status }
func (e *AccessLogEntry) Details() *string     { return e.details }
func (e *AccessLogEntry) CreatedAt() time.Time { return e.createdAt }

// SetID sets the entry ID after persistence.
func (e *AccessLogEntry) SetID(id uint) { e.id = id }

// ReconstructAccessLogEntry rebuilds an entry from persistence.
func ReconstructAccessLogEntry(id uint, purchaseID *uint, action vo.LogAction, status vo.LogStatus, details *string, createdAt time.Time) *AccessLogEntry {
	return &AccessLogEntry{
		id:         id,
		purchaseID: purchaseID,
		action:     action,
		status:     status,
		details:    details,
		createdAt:  createdAt,
	}
}
