package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/repogate-inc/repogate/internal/domain/catalog"
	"github.com/repogate-inc/repogate/internal/infrastructure/persistence/mappers"
	"github.com/repogate-inc/repogate/internal/infrastructure/persistence/models"
	"github.com/repogate-inc/repogate/internal/shared/db"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) Create(ctx context.Context, repo *catalog.Repository) error {
	model := mappers.RepositoryToModel(repo)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create repository listing: %w", err)
	}

	repo.SetID(model.ID)

	return nil
}

func (r *CatalogRepository) Update(ctx context.Context, repo *catalog.Repository) error {
	model := mappers.RepositoryToModel(repo)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.RepositoryModel{}).
		Where("id = ? AND version < ?", model.ID, model.Version).
		Updates(map[string]interface{}{
			"name":                   model.Name,
			"description":            model.Description,
			"cover_image_url":        model.CoverImageURL,
			"pricing_type":           model.PricingType,
			"price_cents":            model.PriceCents,
			"cadence":                model.Cadence,
			"custom_cadence_days":    model.CustomCadenceDays,
			"payment_provider":       model.PaymentProvider,
			"provider_product_id":    model.ProviderProductID,
			"provider_price_id":      model.ProviderPriceID,
			"active":                 model.Active,
			"require_email_for_free": model.RequireEmailForFree,
			"version":                model.Version,
			"updated_at":             model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update repository listing: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return apperrors.NewConflictError("repository listing was modified concurrently")
	}

	return nil
}

func (r *CatalogRepository) GetByID(ctx context.Context, id uint) (*catalog.Repository, error) {
	var model models.RepositoryModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError("repository listing not found")
		}
		return nil, fmt.Errorf("failed to get repository listing: %w", err)
	}

	return mappers.RepositoryToDomain(&model)
}

func (r *CatalogRepository) GetBySlug(ctx context.Context, slug string) (*catalog.Repository, error) {
	var model models.RepositoryModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("slug = ?", slug).
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError("repository listing not found")
		}
		return nil, fmt.Errorf("failed to get repository listing by slug: %w", err)
	}

	return mappers.RepositoryToDomain(&model)
}

func (r *CatalogRepository) ListByOwnerID(ctx context.Context, ownerID uint) ([]*catalog.Repository, error) {
	var repoModels []models.RepositoryModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&repoModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list repository listings: %w", err)
	}

	repos := make([]*catalog.Repository, len(repoModels))
	for i, model := range repoModels {
		repo, err := mappers.RepositoryToDomain(&model)
		if err != nil {
			return nil, err
		}
		repos[i] = repo
	}

	return repos, nil
}
