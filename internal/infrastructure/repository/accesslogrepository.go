package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/repogate-inc/repogate/internal/domain/purchase"
	"github.com/repogate-inc/repogate/internal/infrastructure/persistence/mappers"
	"github.com/repogate-inc/repogate/internal/infrastructure/persistence/models"
	"github.com/repogate-inc/repogate/internal/shared/db"
)

type AccessLogRepository struct {
	db *gorm.DB
}

func NewAccessLogRepository(db *gorm.DB) *AccessLogRepository {
	return &AccessLogRepository{db: db}
}

func (r *AccessLogRepository) Create(ctx context.Context, entry *purchase.AccessLogEntry) error {
	model := mappers.AccessLogToModel(entry)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create access log entry: %w", err)
	}

	entry.SetID(model.ID)

	return nil
}

func (r *AccessLogRepository) ListByPurchaseID(ctx context.Context, purchaseID uint) ([]*purchase.AccessLogEntry, error) {
	var logModels []models.AccessLogModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("purchase_id = ?", purchaseID).
		Order("created_at ASC").
		Find(&logModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list access log entries: %w", err)
	}

	entries := make([]*purchase.AccessLogEntry, len(logModels))
	for i, model := range logModels {
		entry, err := mappers.AccessLogToDomain(&model)
		if err != nil {
			return nil, err
		}
		entries[i] = entry
	}

	return entries, nil
}
