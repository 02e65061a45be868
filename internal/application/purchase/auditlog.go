// Package purchase hosts the reconciliation engine's application
// services and use cases.
package purchase

import (
	"context"

	purchasedomain "github.com/repogate-inc/repogate/internal/domain/purchase"
	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

// AuditRecorder appends to the access audit trail. Recording is
// fire-and-forget: a persistence failure is logged and swallowed so an
// audit hiccup never fails the flow it documents.
type AuditRecorder struct {
	logs purchasedomain.AccessLogRepository
	log  logger.Interface
}

func NewAuditRecorder(logs purchasedomain.AccessLogRepository, log logger.Interface) *AuditRecorder {
	return &AuditRecorder{
		logs: logs,
		log:  log.Named("audit"),
	}
}

// Record appends one entry. purchaseID may be nil when the side effect
// happened before a purchase existed.
func (r *AuditRecorder) Record(ctx context.Context, purchaseID *uint, action vo.LogAction, status vo.LogStatus, details string) {
	entry, err := purchasedomain.NewAccessLogEntry(purchaseID, action, status, details)
	if err != nil {
		r.log.Errorw("invalid audit entry", "action", action, "status", status, "error", err)
		return
	}
	if err := r.logs.Create(ctx, entry); err != nil {
		r.log.Errorw("failed to persist audit entry",
			"action", action,
			"status", status,
			"error", err,
		)
	}
}
