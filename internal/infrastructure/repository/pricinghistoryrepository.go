package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/repogate-inc/repogate/internal/domain/catalog"
	"github.com/repogate-inc/repogate/internal/infrastructure/persistence/mappers"
	"github.com/repogate-inc/repogate/internal/infrastructure/persistence/models"
	"github.com/repogate-inc/repogate/internal/shared/db"
)

type PricingHistoryRepository struct {
	db *gorm.DB
}

func NewPricingHistoryRepository(db *gorm.DB) *PricingHistoryRepository {
	return &PricingHistoryRepository{db: db}
}

func (r *PricingHistoryRepository) Create(ctx context.Context, h *catalog.PricingHistory) error {
	model := mappers.PricingHistoryToModel(h)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create pricing history entry: %w", err)
	}

	h.SetID(model.ID)

	return nil
}

// GetOpenByRepositoryID returns the entry with no effective_until, nil
// when the repository has no open entry yet.
func (r *PricingHistoryRepository) GetOpenByRepositoryID(ctx context.Context, repositoryID uint) (*catalog.PricingHistory, error) {
	var model models.PricingHistoryModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("repository_id = ? AND effective_until IS NULL", repositoryID).
		Order("effective_from DESC").
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open pricing entry: %w", err)
	}

	return mappers.PricingHistoryToDomain(&model)
}

func (r *PricingHistoryRepository) Update(ctx context.Context, h *catalog.PricingHistory) error {
	model := mappers.PricingHistoryToModel(h)

	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.PricingHistoryModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"effective_until": model.EffectiveUntil,
		}).Error; err != nil {
		return fmt.Errorf("failed to update pricing history entry: %w", err)
	}

	return nil
}

func (r *PricingHistoryRepository) ListByRepositoryID(ctx context.Context, repositoryID uint) ([]*catalog.PricingHistory, error) {
	var historyModels []models.PricingHistoryModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("repository_id = ?", repositoryID).
		Order("effective_from DESC").
		Find(&historyModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list pricing history: %w", err)
	}

	entries := make([]*catalog.PricingHistory, len(historyModels))
	for i, model := range historyModels {
		entry, err := mappers.PricingHistoryToDomain(&model)
		if err != nil {
			return nil, err
		}
		entries[i] = entry
	}

	return entries, nil
}
