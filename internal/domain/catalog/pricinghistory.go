package catalog

import (
	"fmt"
	"time"

	vo "github.com/repogate-inc/repogate/internal/domain/catalog/valueobjects"
	"github.com/repogate-inc/repogate/internal/shared/biztime"
)

// PricingHistory is a versioned record of a repository's price over time.
// At most one entry per repository is open (EffectiveUntil == nil) at any
// time; a price change closes the open entry and opens a new one.
type PricingHistory struct {
	id             uint
	repositoryID   uint
	priceCents     int64
	pricingType    vo.PricingType
	cadence        *vo.Cadence
	changedBy      *uint
	effectiveFrom  time.Time
	effectiveUntil *time.Time
	createdAt      time.Time
}

// NewPricingHistory opens a new pricing entry effective from now.
func NewPricingHistory(repositoryID uint, priceCents int64, pricingType vo.PricingType, cadence *vo.Cadence, changedBy *uint) (*PricingHistory, error) {
	if repositoryID == 0 {
		return nil, fmt.Errorf("repository ID is required")
	}
	if priceCents < 0 {
		return nil, fmt.Errorf("price must not be negative")
	}
	now := biztime.NowUTC()
	return &PricingHistory{
		repositoryID:  repositoryID,
		priceCents:    priceCents,
		pricingType:   pricingType,
		cadence:       cadence,
		changedBy:     changedBy,
		effectiveFrom: now,
		createdAt:     now,
	}, nil
}

func (h *PricingHistory) ID() uint                   { return h.id }
func (h *PricingHistory) RepositoryID() uint         { return h.repositoryID }
func (h *PricingHistory) PriceCents() int64          { return h.priceCents }
func (h *PricingHistory) PricingType() vo.PricingType { return h.pricingType }
func (h *PricingHistory) Cadence() *vo.Cadence       { return h.cadence }
func (h *PricingHistory) ChangedBy() *uint           { return h.changedBy }
func (h *PricingHistory) EffectiveFrom() time.Time   { return h.effectiveFrom }
func (h *PricingHistory) EffectiveUntil() *time.Time { return h.effectiveUntil }
func (h *PricingHistory) CreatedAt() time.Time       { return h.createdAt }
func (h *PricingHistory) IsOpen() bool               { return h.effectiveUntil == nil }

// SetID sets the ID after persistence.
func (h *PricingHistory) SetID(id uint) { h.id = id }

// Close ends this pricing entry. Closing an already closed entry is a no-op.
func (h *PricingHistory) Close() {
	if h.effectiveUntil != nil {
		return
	}
	now := biztime.NowUTC()
	h.effectiveUntil = &now
}

// ReconstructPricingHistory rebuilds an entry from persistence.
func ReconstructPricingHistory(
	id, repositoryID uint,
	priceCents int64,
	pricingType vo.PricingType,
	cadence *vo.Cadence,
	changedBy *uint,
	effectiveFrom time.Time,
	effectiveUntil *time.Time,
	createdAt time.Time,
) *PricingHistory {
	return &PricingHistory{
		id:             id,
		repositoryID:   repositoryID,
		priceCents:     priceCents,
		pricingType:    pricingType,
		cadence:        cadence,
		changedBy:      changedBy,
		effectiveFrom:  effectiveFrom,
		effectiveUntil: effectiveUntil,
		createdAt:      createdAt,
	}
}
