// Package catalog models repositories offered for sale: a source-hosting
// repository, its pricing, and the lazily created payment-provider product
// behind it.
package catalog

import (
	"fmt"

	vo "github.com/repogate-inc/repogate/internal/domain/catalog/valueobjects"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	"github.com/repogate-inc/repogate/internal/shared/biztime"

	"time"
)

// Repository is a private source repository listed for sale. The
// (githubOwner, githubRepoName) pair is unique per live listing.
type Repository struct {
	id       uint
	ownerID  uint
	slug     string
	name     string
	desc     string
	ghOwner  string
	ghRepo   string
	coverURL string

	pricingType       vo.PricingType
	priceCents        int64
	cadence           *vo.Cadence
	customCadenceDays *int

	paymentProvider   merchant.Provider
	providerProductID *string
	providerPriceID   *string

	active              bool
	requireEmailForFree bool

	version   int
	createdAt time.Time
	updatedAt time.Time
}

// NewRepository validates and creates a listing. Cadence must be set iff
// the pricing type is subscription; free listings carry a zero price.
func NewRepository(
	ownerID uint,
	slug, name, ghOwner, ghRepo string,
	pricingType vo.PricingType,
	priceCents int64,
	cadence *vo.Cadence,
	customCadenceDays *int,
) (*Repository, error) {
	if ownerID == 0 {
		return nil, fmt.Errorf("owner ID is required")
	}
	if slug == "" {
		return nil, fmt.Errorf("slug is required")
	}
	if ghOwner == "" || ghRepo == "" {
		return nil, fmt.Errorf("github owner and repository name are required")
	}
	if !pricingType.IsValid() {
		return nil, fmt.Errorf("invalid pricing type: %s", pricingType)
	}
	if priceCents < 0 {
		return nil, fmt.Errorf("price must not be negative")
	}
	if pricingType.IsFree() && priceCents != 0 {
		return nil, fmt.Errorf("free repositories must have a zero price")
	}
	if pricingType.IsSubscription() != (cadence != nil) {
		return nil, fmt.Errorf("subscription cadence must be set exactly when pricing type is subscription")
	}
	if cadence != nil && *cadence == vo.CadenceCustom && (customCadenceDays == nil || *customCadenceDays <= 0) {
		return nil, fmt.Errorf("custom cadence requires a positive day count")
	}
	if name == "" {
		name = ghRepo
	}

	now := biztime.NowUTC()
	return &Repository{
		ownerID:           ownerID,
		slug:              slug,
		name:              name,
		ghOwner:           ghOwner,
		ghRepo:            ghRepo,
		pricingType:       pricingType,
		priceCents:        priceCents,
		cadence:           cadence,
		customCadenceDays: customCadenceDays,
		active:            true,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

func (r *Repository) ID() uint                           { return r.id }
func (r *Repository) OwnerID() uint                      { return r.ownerID }
func (r *Repository) Slug() string                       { return r.slug }
func (r *Repository) Name() string                       { return r.name }
func (r *Repository) Description() string                { return r.desc }
func (r *Repository) CoverImageURL() string              { return r.coverURL }
func (r *Repository) GitHubOwner() string                { return r.ghOwner }
func (r *Repository) GitHubRepoName() string             { return r.ghRepo }
func (r *Repository) PricingType() vo.PricingType        { return r.pricingType }
func (r *Repository) PriceCents() int64                  { return r.priceCents }
func (r *Repository) Cadence() *vo.Cadence               { return r.cadence }
func (r *Repository) CustomCadenceDays() *int            { return r.customCadenceDays }
func (r *Repository) PaymentProvider() merchant.Provider { return r.paymentProvider }
func (r *Repository) ProviderProductID() *string         { return r.providerProductID }
func (r *Repository) ProviderPriceID() *string           { return r.providerPriceID }
func (r *Repository) Active() bool                       { return r.active }
func (r *Repository) RequireEmailForFree() bool          { return r.requireEmailForFree }
func (r *Repository) Version() int                       { return r.version }
func (r *Repository) CreatedAt() time.Time               { return r.createdAt }
func (r *Repository) UpdatedAt() time.Time               { return r.updatedAt }

// SetID sets the ID after persistence (used by the store after Create).
func (r *Repository) SetID(id uint) { r.id = id }

// SetDescription updates the listing description.
func (r *Repository) SetDescription(desc string) {
	r.desc = desc
	r.touch()
}

// SetCoverImageURL updates the listing cover image.
func (r *Repository) SetCoverImageURL(url string) {
	r.coverURL = url
	r.touch()
}

// SetRequireEmailForFree toggles whether free-access requests must carry a
// buyer email.
func (r *Repository) SetRequireEmailForFree(v bool) {
	r.requireEmailForFree = v
	r.touch()
}

// SelectPaymentProvider records which provider sells this listing. Clears
// any previously created remote product so it is lazily recreated on the
// next checkout.
func (r *Repository) SelectPaymentProvider(p merchant.Provider) error {
	if !p.IsValid() {
		return fmt.Errorf("unknown payment provider: %s", p)
	}
	if r.paymentProvider != p {
		r.providerProductID = nil
		r.providerPriceID = nil
	}
	r.paymentProvider = p
	r.touch()
	return nil
}

// SetProviderIDs records the lazily created remote product/price pair.
func (r *Repository) SetProviderIDs(productID, priceID string) {
	r.providerProductID = &productID
	r.providerPriceID = &priceID
	r.touch()
}

// HasProviderProduct reports whether a remote product already exists.
func (r *Repository) HasProviderProduct() bool {
	return r.providerProductID != nil && r.providerPriceID != nil
}

// ChangePrice updates the listing price. Callers must record the change in
// pricing history within the same unit of work.
func (r *Repository) ChangePrice(priceCents int64) error {
	if priceCents < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if r.pricingType.IsFree() && priceCents != 0 {
		return fmt.Errorf("free repositories must have a zero price")
	}
	r.priceCents = priceCents
	// A price change invalidates the remote price object.
	r.providerPriceID = nil
	r.touch()
	return nil
}

// Deactivate takes the listing off sale.
func (r *Repository) Deactivate() {
	r.active = false
	r.touch()
}

// Activate puts the listing back on sale.
func (r *Repository) Activate() {
	r.active = true
	r.touch()
}

func (r *Repository) touch() {
	r.updatedAt = biztime.NowUTC()
	r.version++
}

// RepositoryReconstructParams carries persisted state back into the domain.
type RepositoryReconstructParams struct {
	ID                  uint
	OwnerID             uint
	Slug                string
	Name                string
	Description         string
	CoverImageURL       string
	GitHubOwner         string
	GitHubRepoName      string
	PricingType         vo.PricingType
	PriceCents          int64
	Cadence             *vo.Cadence
	CustomCadenceDays   *int
	PaymentProvider     merchant.Provider
	ProviderProductID   *string
	ProviderPriceID     *string
	Active              bool
	RequireEmailForFree bool
	Version             int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ReconstructRepository rebuilds a Repository from persistence.
func ReconstructRepository(p RepositoryReconstructParams) *Repository {
	return &Repository{
		id:                  p.ID,
		ownerID:             p.OwnerID,
		slug:                p.Slug,
		name:                p.Name,
		desc:                p.Description,
		coverURL:            p.CoverImageURL,
		ghOwner:             p.GitHubOwner,
		ghRepo:              p.GitHubRepoName,
		pricingType:         p.PricingType,
		priceCents:          p.PriceCents,
		cadence:             p.Cadence,
		customCadenceDays:   p.CustomCadenceDays,
		paymentProvider:     p.PaymentProvider,
		providerProductID:   p.ProviderProductID,
		providerPriceID:     p.ProviderPriceID,
		active:              p.Active,
		requireEmailForFree: p.RequireEmailForFree,
		version:             p.Version,
		createdAt:           p.CreatedAt,
		updatedAt:           p.UpdatedAt,
	}
}
