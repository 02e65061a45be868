package catalog

import "context"

// Store persists repository listings.
type Store interface {
	Create(ctx context.Context, r *Repository) error
	Update(ctx context.Context, r *Repository) error
	GetByID(ctx context.Context, id uint) (*Repository, error)
	GetBySlug(ctx context.Context, slug string) (*Repository, error)
	ListByOwnerID(ctx context.Context, ownerID uint) ([]*Repository, error)
}

// PricingHistoryStore persists pricing history entries.
type PricingHistoryStore interface {
	Create(ctx context.Context, h *PricingHistory) error
	// GetOpenByRepositoryID returns the single open entry for the
	// repository, or nil when none exists.
	GetOpenByRepositoryID(ctx context.Context, repositoryID uint) (*PricingHistory, error)
	Update(ctx context.Context, h *PricingHistory) error
	ListByRepositoryID(ctx context.Context, repositoryID uint) ([]*PricingHistory, error)
}
