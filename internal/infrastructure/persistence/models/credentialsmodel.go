package models

import "time"

// MerchantCredentialsModel stores one owner's provider configuration.
// Secret columns hold AES-GCM ciphertext, never plaintext.
type MerchantCredentialsModel struct {
	ID       uint   `gorm:"primaryKey"`
	OwnerID  uint   `gorm:"uniqueIndex;not null"`
	Provider string `gorm:"size:20;not null"`

	StripeSecretKey      *string `gorm:"type:text"`
	StripePublishableKey *string `gorm:"type:text"`
	LemonSqueezyAPIKey   *string `gorm:"type:text"`
	LemonSqueezyStoreID  *string `gorm:"size:64"`
	GumroadAccessToken   *string `gorm:"type:text"`
	PaddleVendorID       *string `gorm:"size:64"`
	PaddleAPIKey         *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (MerchantCredentialsModel) TableName() string {
	return "merchant_credentials"
}
