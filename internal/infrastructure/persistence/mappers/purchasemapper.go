package mappers

import (
	"fmt"

	"github.com/repogate-inc/repogate/internal/domain/merchant"
	"github.com/repogate-inc/repogate/internal/domain/purchase"
	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	"github.com/repogate-inc/repogate/internal/infrastructure/persistence/models"
)

func PurchaseToModel(p *purchase.Purchase) *models.PurchaseModel {
	model := &models.PurchaseModel{
		ID:               p.ID(),
		OrderNo:          p.OrderNo(),
		RepositoryID:     p.RepositoryID(),
		ProductID:        p.ProductID(),
		Provider:         p.Provider().String(),
		CustomerID:       p.CustomerID(),
		SubscriptionID:   p.SubscriptionID(),
		PaymentIntentID:  p.PaymentIntentID(),
		Email:            p.Email(),
		GitHubUsername:   p.GitHubUsername(),
		PurchaseType:     p.PurchaseType().String(),
		AmountCents:      p.AmountCents(),
		Status:           p.Status().String(),
		AccessStatus:     p.AccessStatus().String(),
		AccessGrantedAt:  p.AccessGrantedAt(),
		RevokedAt:        p.RevokedAt(),
		RevokedBy:        p.RevokedBy(),
		RevocationReason: p.RevocationReason(),
		Version:          p.Version(),
		CreatedAt:        p.CreatedAt(),
		UpdatedAt:        p.UpdatedAt(),
	}

	if len(p.Metadata()) > 0 {
		model.Metadata = p.Metadata()
	}

	return model
}

func PurchaseToDomain(model *models.PurchaseModel) (*purchase.Purchase, error) {
	purchaseType, err := vo.NewPurchaseType(model.PurchaseType)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase type: %w", err)
	}

	status, err := vo.NewStatus(model.Status)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase status: %w", err)
	}

	accessStatus, err := vo.NewAccessStatus(model.AccessStatus)
	if err != nil {
		return nil, fmt.Errorf("invalid access status: %w", err)
	}

	var provider merchant.Provider
	if model.Provider != "" {
		provider, err = merchant.NewProvider(model.Provider)
		if err != nil {
			return nil, fmt.Errorf("invalid payment provider: %w", err)
		}
	}

	metadata := model.Metadata
	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	return purchase.ReconstructPurchase(purchase.PurchaseReconstructParams{
		ID:               model.ID,
		OrderNo:          model.OrderNo,
		RepositoryID:     model.RepositoryID,
		ProductID:        model.ProductID,
		Provider:         provider,
		CustomerID:       model.CustomerID,
		SubscriptionID:   model.SubscriptionID,
		PaymentIntentID:  model.PaymentIntentID,
		Email:            model.Email,
		GitHubUsername:   model.GitHubUsername,
		PurchaseType:     purchaseType,
		AmountCents:      model.AmountCents,
		Status:           status,
		AccessStatus:     accessStatus,
		AccessGrantedAt:  model.AccessGrantedAt,
		RevokedAt:        model.RevokedAt,
		RevokedBy:        model.RevokedBy,
		RevocationReason: model.RevocationReason,
		Metadata:         metadata,
		Version:          model.Version,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}), nil
}
