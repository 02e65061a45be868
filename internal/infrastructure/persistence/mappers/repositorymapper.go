package mappers

import (
	"fmt"

	"github.com/repogate-inc/repogate/internal/domain/catalog"
	vo "github.com/repogate-inc/repogate/internal/domain/catalog/valueobjects"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	"github.com/repogate-inc/repogate/internal/infrastructure/persistence/models"
)

func RepositoryToModel(r *catalog.Repository) *models.RepositoryModel {
	model := &models.RepositoryModel{
		ID:                  r.ID(),
		OwnerID:             r.OwnerID(),
		Slug:                r.Slug(),
		Name:                r.Name(),
		Description:         r.Description(),
		CoverImageURL:       r.CoverImageURL(),
		GitHubOwner:         r.GitHubOwner(),
		GitHubRepoName:      r.GitHubRepoName(),
		PricingType:         r.PricingType().String(),
		PriceCents:          r.PriceCents(),
		CustomCadenceDays:   r.CustomCadenceDays(),
		PaymentProvider:     r.PaymentProvider().String(),
		ProviderProductID:   r.ProviderProductID(),
		ProviderPriceID:     r.ProviderPriceID(),
		Active:              r.Active(),
		RequireEmailForFree: r.RequireEmailForFree(),
		Version:             r.Version(),
		CreatedAt:           r.CreatedAt(),
		UpdatedAt:           r.UpdatedAt(),
	}

	if c := r.Cadence(); c != nil {
		s := c.String()
		model.Cadence = &s
	}

	return model
}

func RepositoryToDomain(model *models.RepositoryModel) (*catalog.Repository, error) {
	pricingType, err := vo.NewPricingType(model.PricingType)
	if err != nil {
		return nil, fmt.Errorf("invalid pricing type: %w", err)
	}

	var cadence *vo.Cadence
	if model.Cadence != nil {
		c, err := vo.NewCadence(*model.Cadence)
		if err != nil {
			return nil, fmt.Errorf("invalid cadence: %w", err)
		}
		cadence = &c
	}

	var provider merchant.Provider
	if model.PaymentProvider != "" {
		provider, err = merchant.NewProvider(model.PaymentProvider)
		if err != nil {
			return nil, fmt.Errorf("invalid payment provider: %w", err)
		}
	}

	return catalog.ReconstructRepository(catalog.RepositoryReconstructParams{
		ID:                  model.ID,
		OwnerID:             model.OwnerID,
		Slug:                model.Slug,
		Name:                model.Name,
		Description:         model.Description,
		CoverImageURL:       model.CoverImageURL,
		GitHubOwner:         model.GitHubOwner,
		GitHubRepoName:      model.GitHubRepoName,
		PricingType:         pricingType,
		PriceCents:          model.PriceCents,
		Cadence:             cadence,
		CustomCadenceDays:   model.CustomCadenceDays,
		PaymentProvider:     provider,
		ProviderProductID:   model.ProviderProductID,
		ProviderPriceID:     model.ProviderPriceID,
		Active:              model.Active,
		RequireEmailForFree: model.RequireEmailForFree,
		Version:             model.Version,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}), nil
}
