package models

import "time"

type PricingHistoryModel struct {
	ID             uint    `gorm:"primaryKey"`
	RepositoryID   uint    `gorm:"index;not null"`
	PriceCents     int64   `gorm:"not null"`
	PricingType    string  `gorm:"size:20;not null"`
	Cadence        *string `gorm:"size:20"`
	ChangedBy      *uint
	EffectiveFrom  time.Time `gorm:"not null"`
	EffectiveUntil *time.Time
	CreatedAt      time.Time
}

func (PricingHistoryModel) TableName() string {
	return "pricing_history"
}
