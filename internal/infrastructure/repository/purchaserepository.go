package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/repogate-inc/repogate/internal/domain/purchase"
	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	"github.com/repogate-inc/repogate/internal/infrastructure/persistence/mappers"
	"github.com/repogate-inc/repogate/internal/infrastructure/persistence/models"
	"github.com/repogate-inc/repogate/internal/shared/db"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Create(ctx context.Context, p *purchase.Purchase) error {
	model := mappers.PurchaseToModel(p)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}

	// Write back the auto-generated ID to the domain object
	p.SetID(model.ID)
	p.CommitVersion()

	return nil
}

// Update writes the aggregate back guarded by the version the row held
// when it was loaded, so a concurrent writer that advanced the row since
// makes the guard miss and the caller gets ErrStaleVersion to reload and
// re-apply. The guard is against the loaded version rather than the
// bumped one so flows that mutate more than once cannot step over a
// concurrent single-mutation write from the same starting point.
func (r *PurchaseRepository) Update(ctx context.Context, p *purchase.Purchase) error {
	model := mappers.PurchaseToModel(p)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.PurchaseModel{}).
		Where("id = ? AND version = ?", model.ID, p.LoadedVersion()).
		Updates(map[string]interface{}{
			"product_id":        model.ProductID,
			"provider":          model.Provider,
			"customer_id":       model.CustomerID,
			"subscription_id":   model.SubscriptionID,
			"payment_intent_id": model.PaymentIntentID,
			"status":            model.Status,
			"access_status":     model.AccessStatus,
			"access_granted_at": model.AccessGrantedAt,
			"revoked_at":        model.RevokedAt,
			"revoked_by":        model.RevokedBy,
			"revocation_reason": model.RevocationReason,
			"metadata":          model.Metadata,
			"version":           model.Version,
			"updated_at":        model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update purchase: %w", result.Error)
	}

	// The version column always advances, so zero affected rows means the
	// guard failed rather than an identical write.
	if result.RowsAffected == 0 {
		return purchase.ErrStaleVersion
	}

	p.CommitVersion()
	return nil
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id uint) (*purchase.Purchase, error) {
	var model models.PurchaseModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError("purchase not found")
		}
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	return mappers.PurchaseToDomain(&model)
}

func (r *PurchaseRepository) GetByOrderNo(ctx context.Context, orderNo string) (*purchase.Purchase, error) {
	var model models.PurchaseModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("order_no = ?", orderNo).
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError("purchase not found")
		}
		return nil, fmt.Errorf("failed to get purchase by order_no: %w", err)
	}

	return mappers.PurchaseToDomain(&model)
}

func (r *PurchaseRepository) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*purchase.Purchase, error) {
	var model models.PurchaseModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError("purchase not found")
		}
		return nil, fmt.Errorf("failed to get purchase by subscription_id: %w", err)
	}

	return mappers.PurchaseToDomain(&model)
}

func (r *PurchaseRepository) GetActiveByRepoAndUsername(ctx context.Context, repositoryID uint, githubUsername string) (*purchase.Purchase, error) {
	var model models.PurchaseModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("repository_id = ? AND github_username = ? AND access_status = ?",
			repositoryID, githubUsername, vo.AccessStatusActive).
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError("no active purchase for repository and username")
		}
		return nil, fmt.Errorf("failed to get active purchase: %w", err)
	}

	return mappers.PurchaseToDomain(&model)
}

func (r *PurchaseRepository) GetByRepoAndUsername(ctx context.Context, repositoryID uint, githubUsername string) (*purchase.Purchase, error) {
	var model models.PurchaseModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("repository_id = ? AND github_username = ?", repositoryID, githubUsername).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError("no purchase for repository and username")
		}
		return nil, fmt.Errorf("failed to get purchase by repository and username: %w", err)
	}

	return mappers.PurchaseToDomain(&model)
}

func (r *PurchaseRepository) GetLatestPendingByRepoAndUsername(ctx context.Context, repositoryID uint, githubUsername string) (*purchase.Purchase, error) {
	var model models.PurchaseModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("repository_id = ? AND github_username = ? AND status = ?",
			repositoryID, githubUsername, vo.StatusPending).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError("no pending purchase for repository and username")
		}
		return nil, fmt.Errorf("failed to get pending purchase: %w", err)
	}

	return mappers.PurchaseToDomain(&model)
}

// ListGrantPending returns completed purchases still flagged with a
// pending collaborator grant in metadata, oldest first.
// Using JSON_EXTRACT for MySQL/MariaDB compatibility.
func (r *PurchaseRepository) ListGrantPending(ctx context.Context, limit int) ([]*purchase.Purchase, error) {
	var purchaseModels []models.PurchaseModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("status = ? AND JSON_EXTRACT(metadata, '$.access_grant_pending') = true",
			vo.StatusCompleted).
		Order("created_at ASC").
		Limit(limit).
		Find(&purchaseModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list purchases with pending grants: %w", err)
	}

	return r.toDomainList(purchaseModels)
}

func (r *PurchaseRepository) ListByRepositoryID(ctx context.Context, repositoryID uint) ([]*purchase.Purchase, error) {
	var purchaseModels []models.PurchaseModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("repository_id = ?", repositoryID).
		Order("created_at DESC").
		Find(&purchaseModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list purchases by repository_id: %w", err)
	}

	return r.toDomainList(purchaseModels)
}

func (r *PurchaseRepository) ListByAccessStatus(ctx context.Context, status vo.AccessStatus) ([]*purchase.Purchase, error) {
	var purchaseModels []models.PurchaseModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("access_status = ?", status).
		Order("created_at DESC").
		Find(&purchaseModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list purchases by access status: %w", err)
	}

	return r.toDomainList(purchaseModels)
}

func (r *PurchaseRepository) CountActiveByRepositoryID(ctx context.Context, repositoryID uint) (int64, error) {
	var count int64

	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.PurchaseModel{}).
		Where("repository_id = ? AND access_status = ?", repositoryID, vo.AccessStatusActive).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active purchases: %w", err)
	}

	return count, nil
}

func (r *PurchaseRepository) toDomainList(purchaseModels []models.PurchaseModel) ([]*purchase.Purchase, error) {
	purchases := make([]*purchase.Purchase, len(purchaseModels))
	for i, model := range purchaseModels {
		p, err := mappers.PurchaseToDomain(&model)
		if err != nil {
			return nil, err
		}
		purchases[i] = p
	}

	return purchases, nil
}
