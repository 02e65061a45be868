package mappers

import (
	"fmt"

	"github.com/repogate-inc/repogate/internal/domain/purchase"
	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	"github.com/repogate-inc/repogate/internal/infrastructure/persistence/models"
)

func AccessLogToModel(e *purchase.AccessLogEntry) *models.AccessLogModel {
	return &models.AccessLogModel{
		ID:         e.ID(),
		PurchaseID: e.PurchaseID(),
		Action:     e.Action().String(),
		Status:     e.Status().String(),
		Details:    e.Details(),
		CreatedAt:  e.CreatedAt(),
	}
}

func AccessLogToDomain(model *models.AccessLogModel) (*purchase.AccessLogEntry, error) {
	action, err := vo.NewLogAction(model.Action)
	if err != nil {
		return nil, fmt.Errorf("invalid log action: %w", err)
	}

	status, err := vo.NewLogStatus(model.Status)
	if err != nil {
		return nil, fmt.Errorf("invalid log status: %w", err)
	}

	return purchase.ReconstructAccessLogEntry(
		model.ID, model.PurchaseID, action, status, model.Details, model.CreatedAt,
	), nil
}
