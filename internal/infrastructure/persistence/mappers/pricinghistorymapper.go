package mappers

import (
	"fmt"

	"github.com/repogate-inc/repogate/internal/domain/catalog"
	vo "github.com/repogate-inc/repogate/internal/domain/catalog/valueobjects"
	"github.com/repogate-inc/repogate/internal/infrastructure/persistence/models"
)

func PricingHistoryToModel(h *catalog.PricingHistory) *models.PricingHistoryModel {
	model := &models.PricingHistoryModel{
		ID:             h.ID(),
		RepositoryID:   h.RepositoryID(),
		PriceCents:     h.PriceCents(),
		PricingType:    h.PricingType().String(),
		ChangedBy:      h.ChangedBy(),
		EffectiveFrom:  h.EffectiveFrom(),
		EffectiveUntil: h.EffectiveUntil(),
		CreatedAt:      h.CreatedAt(),
	}

	if c := h.Cadence(); c != nil {
		s := c.String()
		model.Cadence = &s
	}

	return model
}

func PricingHistoryToDomain(model *models.PricingHistoryModel) (*catalog.PricingHistory, error) {
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

	return catalog.ReconstructPricingHistory(
		model.ID, model.RepositoryID, model.PriceCents, pricingType, cadence,
		model.ChangedBy, model.EffectiveFrom, model.EffectiveUntil, model.CreatedAt,
	), nil
}
