package models

import "time"

type AccessLogModel struct {
	ID         uint    `gorm:"primaryKey"`
	PurchaseID *uint   `gorm:"index"`
	Action     string  `gorm:"size:40;not null"`
	Status     string  `gorm:"size:20;not null"`
	Details    *string `gorm:"type:text"`
	CreatedAt  time.Time
}

func (AccessLogModel) TableName() string {
	return "access_logs"
}
