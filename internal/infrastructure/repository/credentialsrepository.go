package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/repogate-inc/repogate/internal/domain/merchant"
	"github.com/repogate-inc/repogate/internal/infrastructure/persistence/models"
	"github.com/repogate-inc/repogate/internal/infrastructure/secrets"
	"github.com/repogate-inc/repogate/internal/shared/biztime"
	"github.com/repogate-inc/repogate/internal/shared/db"
)

// CredentialsRepository stores per-owner provider credentials with secret
// fields sealed by the encryptor. Decrypted values exist only in the
// returned Credentials and are never logged.
type CredentialsRepository struct {
	db        *gorm.DB
	encryptor *secrets.Encryptor
}

func NewCredentialsRepository(db *gorm.DB, encryptor *secrets.Encryptor) *CredentialsRepository {
	return &CredentialsRepository{db: db, encryptor: encryptor}
}

func (r *CredentialsRepository) GetByOwnerID(ctx context.Context, ownerID uint) (merchant.Credentials, error) {
	var model models.MerchantCredentialsModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("owner_id = ?", ownerID).
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return merchant.Credentials{}, nil
		}
		return merchant.Credentials{}, fmt.Errorf("failed to get merchant credentials: %w", err)
	}

	return r.toDomain(&model)
}

func (r *CredentialsRepository) Save(ctx context.Context, ownerID uint, creds merchant.Credentials) error {
	model, err := r.toModel(ownerID, creds)
	if err != nil {
		return err
	}

	tx := db.GetTxFromContext(ctx, r.db)

	var existing models.MerchantCredentialsModel
	err = tx.Where("owner_id = ?", ownerID).First(&existing).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to create merchant credentials: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to load merchant credentials: %w", err)
	}

	// Replace the whole provider configuration, clearing fields the new
	// provider does not use.
	if err := tx.Model(&models.MerchantCredentialsModel{}).
		Where("owner_id = ?", ownerID).
		Updates(map[string]interface{}{
			"provider":               model.Provider,
			"stripe_secret_key":      model.StripeSecretKey,
			"stripe_publishable_key": model.StripePublishableKey,
			"lemon_squeezy_api_key":  model.LemonSqueezyAPIKey,
			"lemon_squeezy_store_id": model.LemonSqueezyStoreID,
			"gumroad_access_token":   model.GumroadAccessToken,
			"paddle_vendor_id":       model.PaddleVendorID,
			"paddle_api_key":         model.PaddleAPIKey,
			"updated_at":             biztime.NowUTC(),
		}).Error; err != nil {
		return fmt.Errorf("failed to update merchant credentials: %w", err)
	}

	return nil
}

func (r *CredentialsRepository) Delete(ctx context.Context, ownerID uint) error {
	if err := db.GetTxFromContext(ctx, r.db).
		Where("owner_id = ?", ownerID).
		Delete(&models.MerchantCredentialsModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete merchant credentials: %w", err)
	}

	return nil
}

func (r *CredentialsRepository) toModel(ownerID uint, creds merchant.Credentials) (*models.MerchantCredentialsModel, error) {
	model := &models.MerchantCredentialsModel{
		OwnerID:  ownerID,
		Provider: creds.Provider().String(),
	}

	switch creds.Provider() {
	case merchant.ProviderStripe:
		sealed, err := r.encryptor.Encrypt(creds.StripeSecretKey())
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt stripe credentials: %w", err)
		}
		pub := creds.StripePublishableKey()
		model.StripeSecretKey = &sealed
		model.StripePublishableKey = &pub
	case merchant.ProviderLemonSqueezy:
		sealed, err := r.encryptor.Encrypt(creds.LemonSqueezyAPIKey())
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt lemon squeezy credentials: %w", err)
		}
		storeID := creds.LemonSqueezyStoreID()
		model.LemonSqueezyAPIKey = &sealed
		model.LemonSqueezyStoreID = &storeID
	case merchant.ProviderGumroad:
		sealed, err := r.encryptor.Encrypt(creds.GumroadAccessToken())
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt gumroad credentials: %w", err)
		}
		model.GumroadAccessToken = &sealed
	case merchant.ProviderPaddle:
		sealed, err := r.encryptor.Encrypt(creds.PaddleAPIKey())
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt paddle credentials: %w", err)
		}
		vendorID := creds.PaddleVendorID()
		model.PaddleAPIKey = &sealed
		model.PaddleVendorID = &vendorID
	default:
		return nil, fmt.Errorf("unknown payment provider: %s", creds.Provider())
	}

	return model, nil
}

func (r *CredentialsRepository) toDomain(model *models.MerchantCredentialsModel) (merchant.Credentials, error) {
	switch merchant.Provider(model.Provider) {
	case merchant.ProviderStripe:
		secretKey, err := r.encryptor.Decrypt(deref(model.StripeSecretKey))
		if err != nil {
			return merchant.Credentials{}, fmt.Errorf("failed to decrypt stripe credentials: %w", err)
		}
		return merchant.NewStripeCredentials(secretKey, deref(model.StripePublishableKey))
	case merchant.ProviderLemonSqueezy:
		apiKey, err := r.encryptor.Decrypt(deref(model.LemonSqueezyAPIKey))
		if err != nil {
			return merchant.Credentials{}, fmt.Errorf("failed to decrypt lemon squeezy credentials: %w", err)
		}
		return merchant.NewLemonSqueezyCredentials(apiKey, deref(model.LemonSqueezyStoreID))
	case merchant.ProviderGumroad:
		token, err := r.encryptor.Decrypt(deref(model.GumroadAccessToken))
		if err != nil {
			return merchant.Credentials{}, fmt.Errorf("failed to decrypt gumroad credentials: %w", err)
		}
		return merchant.NewGumroadCredentials(token)
	case merchant.ProviderPaddle:
		apiKey, err := r.encryptor.Decrypt(deref(model.PaddleAPIKey))
		if err != nil {
			return merchant.Credentials{}, fmt.Errorf("failed to decrypt paddle credentials: %w", err)
		}
		return merchant.NewPaddleCredentials(deref(model.PaddleVendorID), apiKey)
	default:
		return merchant.Credentials{}, fmt.Errorf("unknown payment provider: %s", model.Provider)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
