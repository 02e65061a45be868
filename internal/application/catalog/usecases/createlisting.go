// Package usecases implements catalog management: owners create listings
// and change prices, with every price recorded in pricing history.
package usecases

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/repogate-inc/repogate/internal/domain/catalog"
	vo "github.com/repogate-inc/repogate/internal/domain/catalog/valueobjects"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9-]`)

// slugify derives the public listing slug from the GitHub repository
// name, the same way storefront URLs are built.
func slugify(repoName string) string {
	return slugInvalidChars.ReplaceAllString(strings.ToLower(repoName), "-")
}

type CreateListingCommand struct {
	OwnerID             uint
	GitHubOwner         string
	GitHubRepoName      string
	DisplayName         string
	Description         string
	CoverImageURL       string
	PricingType         vo.PricingType
	PriceCents          int64
	Cadence             *vo.Cadence
	CustomCadenceDays   *int
	RequireEmailForFree bool
	// PaymentProvider may be empty; the owner can select one later,
	// before the first paid checkout.
	PaymentProvider merchant.Provider
}

type CreateListingResult struct {
	RepositoryID uint
	Slug         string
}

// CreateListingUseCase puts a repository up for sale and opens its first
// pricing history entry.
type CreateListingUseCase struct {
	repos   catalog.Store
	history catalog.PricingHistoryStore
	logger  logger.Interface
}

func NewCreateListingUseCase(
	repos catalog.Store,
	history catalog.PricingHistoryStore,
	logger logger.Interface,
) *CreateListingUseCase {
	return &CreateListingUseCase{
		repos:   repos,
		history: history,
		logger:  logger,
	}
}

func (uc *CreateListingUseCase) Execute(ctx context.Context, cmd CreateListingCommand) (*CreateListingResult, error) {
	slug := slugify(cmd.GitHubRepoName)

	existing, err := uc.repos.GetBySlug(ctx, slug)
	if err != nil && !apperrors.IsNotFoundError(err) {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflictError(fmt.Sprintf("a listing with slug %q already exists", slug))
	}

	repo, err := catalog.NewRepository(
		cmd.OwnerID,
		slug,
		cmd.DisplayName,
		cmd.GitHubOwner,
		cmd.GitHubRepoName,
		cmd.PricingType,
		cmd.PriceCents,
		cmd.Cadence,
		cmd.CustomCadenceDays,
	)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if cmd.Description != "" {
		repo.SetDescription(cmd.Description)
	}
	if cmd.CoverImageURL != "" {
		repo.SetCoverImageURL(cmd.CoverImageURL)
	}
	if cmd.RequireEmailForFree {
		repo.SetRequireEmailForFree(true)
	}
	if cmd.PaymentProvider != "" {
		if err := repo.SelectPaymentProvider(cmd.PaymentProvider); err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
	}

	if err := uc.repos.Create(ctx, repo); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	ownerID := cmd.OwnerID
	entry, err := catalog.NewPricingHistory(repo.ID(), repo.PriceCents(), repo.PricingType(), repo.Cadence(), &ownerID)
	if err != nil {
		return nil, err
	}
	if err := uc.history.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to open pricing history: %w", err)
	}

	uc.logger.Infow("listing created",
		"repository_id", repo.ID(),
		"slug", repo.Slug(),
		"pricing_type", repo.PricingType().String(),
		"price_cents", repo.PriceCents(),
	)

	return &CreateListingResult{RepositoryID: repo.ID(), Slug: repo.Slug()}, nil
}
