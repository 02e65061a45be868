package models

import "time"

type RepositoryModel struct {
	ID            uint   `gorm:"primaryKey"`
	OwnerID       uint   `gorm:"index;not null"`
	Slug          string `gorm:"uniqueIndex;size:128;not null"`
	Name          string `gorm:"size:255;not null"`
	Description   string `gorm:"type:text"`
	CoverImageURL string `gorm:"size:512"`

	GitHubOwner    string `gorm:"column:github_owner;size:64;not null;uniqueIndex:uniq_repositories_github,priority:1"`
	GitHubRepoName string `gorm:"column:github_repo_name;size:128;not null;uniqueIndex:uniq_repositories_github,priority:2"`

	PricingType       string  `gorm:"size:20;not null"`
	PriceCents        int64   `gorm:"not null;default:0"`
	Cadence           *string `gorm:"size:20"`
	CustomCadenceDays *int

	PaymentProvider   string  `gorm:"size:20"`
	ProviderProductID *string `gorm:"size:128"`
	ProviderPriceID   *string `gorm:"size:128"`

	Active              bool `gorm:"not null;default:true"`
	RequireEmailForFree bool `gorm:"not null;default:false"`

	Version   int `gorm:"default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RepositoryModel) TableName() string {
	return "repositories"
}
