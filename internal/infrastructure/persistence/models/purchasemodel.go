package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

type PurchaseModel struct {
	ID           uint   `gorm:"primaryKey"`
	OrderNo      string `gorm:"uniqueIndex;size:64;not null"`
	RepositoryID uint   `gorm:"not null;index:idx_purchases_repo_username,priority:1"`
	ProductID    *uint  `gorm:"index"`

	Provider        string  `gorm:"size:20"`
	CustomerID      *string `gorm:"size:128;index"`
	SubscriptionID  *string `gorm:"size:128;index"`
	PaymentIntentID *string `gorm:"size:128"`

	Email          string `gorm:"size:255"`
	GitHubUsername string `gorm:"column:github_username;size:64;not null;index:idx_purchases_repo_username,priority:2"`
	PurchaseType   string `gorm:"size:20;not null"`
	AmountCents    int64  `gorm:"not null"`

	Status       string `gorm:"size:20;not null;index"`
	AccessStatus string `gorm:"size:20;not null;index"`

	AccessGrantedAt  *time.Time
	RevokedAt        *time.Time
	RevokedBy        *uint
	RevocationReason *string `gorm:"size:64"`

	Metadata  JSONB `gorm:"type:json"`
	Version   int   `gorm:"default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PurchaseModel) TableName() string {
	return "purchases"
}

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return nil
	}
}
