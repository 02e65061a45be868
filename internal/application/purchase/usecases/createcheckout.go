// Package usecases implements the reconciliation engine: one use case
// per purchase lifecycle event, webhook-driven and idempotent.
package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/repogate-inc/repogate/internal/application/payment/gateway"
	"github.com/repogate-inc/repogate/internal/domain/catalog"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	purchasedomain "github.com/repogate-inc/repogate/internal/domain/purchase"
	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
	"github.com/repogate-inc/repogate/internal/shared/goroutine"
	"github.com/repogate-inc/repogate/internal/shared/logger"
)

// Notifier is the transactional email surface the engine depends on.
// Defined where it is consumed; implemented by infrastructure/email via
// the application-level adapter.
type Notifier interface {
	SendConfirmation(ctx context.Context, to, repoName string) error
	SendAccessGranted(ctx context.Context, to, repoName, githubRepo string) error
	SendRevocation(ctx context.Context, to, repoName, reason string) error
	SendRenewal(ctx context.Context, to, repoName string) error
	SendAdminAlert(ctx context.Context, subject, body string) error
}

// AuditRecorder appends to the access audit trail without ever failing
// the flow it documents.
type AuditRecorder interface {
	Record(ctx context.Context, purchaseID *uint, action vo.LogAction, status vo.LogStatus, details string)
}

// CollaboratorGranter is the slice of the grant service the engine uses.
type CollaboratorGranter interface {
	AddCollaboratorWithRetry(ctx context.Context, owner, repo, username string) error
	RemoveCollaborator(ctx context.Context, owner, repo, username string) error
}

const notifyTimeout = 30 * time.Second

type CreateCheckoutCommand struct {
	RepositorySlug string
	Email          string
	GitHubUsername string
	SuccessURL     string
	CancelURL      string
}

type CreateCheckoutResult struct {
	OrderNo     string
	CheckoutURL string
}

// CreateCheckoutUseCase opens a hosted checkout session for a paid
// repository, lazily creating the remote product on first sale.
type CreateCheckoutUseCase struct {
	repos       catalog.Store
	purchases   purchasedomain.Repository
	credentials merchant.CredentialsRepository
	gateways    gateway.Factory
	notifier    Notifier
	audit       AuditRecorder
	logger      logger.Interface
}

func NewCreateCheckoutUseCase(
	repos catalog.Store,
	purchases purchasedomain.Repository,
	credentials merchant.CredentialsRepository,
	gateways gateway.Factory,
	notifier Notifier,
	audit AuditRecorder,
	logger logger.Interface,
) *CreateCheckoutUseCase {
	return &CreateCheckoutUseCase{
		repos:       repos,
		purchases:   purchases,
		credentials: credentials,
		gateways:    gateways,
		notifier:    notifier,
		audit:       audit,
		logger:      logger,
	}
}

func (uc *CreateCheckoutUseCase) Execute(ctx context.Context, cmd CreateCheckoutCommand) (*CreateCheckoutResult, error) {
	if cmd.GitHubUsername == "" {
		return nil, apperrors.NewValidationError("github username is required")
	}
	if cmd.Email == "" {
		return nil, apperrors.NewValidationError("email is required")
	}

	repo, err := uc.repos.GetBySlug(ctx, cmd.RepositorySlug)
	if err != nil {
		return nil, err
	}
	if !repo.Active() {
		return nil, apperrors.NewNotFoundError("repository is not available")
	}
	if repo.PricingType().IsFree() {
		return nil, apperrors.NewValidationError("repository is free, use the free access endpoint")
	}

	gw, err := uc.initializedGateway(ctx, repo)
	if err != nil {
		return nil, err
	}

	if err := uc.ensureRemoteProduct(ctx, gw, repo); err != nil {
		return nil, err
	}

	purchaseType := vo.PurchaseTypeOneTime
	if repo.PricingType().IsSubscription() {
		purchaseType = vo.PurchaseTypeSubscription
	}

	p, err := purchasedomain.NewPurchase(repo.ID(), cmd.Email, cmd.GitHubUsername, purchaseType, repo.PriceCents())
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	p.SetProviderRefs(repo.PaymentProvider(), "", "", "")
	if err := uc.purchases.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	checkoutURL, err := gw.CreateCheckoutURL(ctx, gateway.CheckoutRequest{
		OrderNo:        p.OrderNo(),
		ProductID:      derefOrEmpty(repo.ProviderProductID()),
		PriceID:        derefOrEmpty(repo.ProviderPriceID()),
		RepositoryID:   repo.ID(),
		RepositorySlug: repo.Slug(),
		Email:          cmd.Email,
		GitHubUsername: cmd.GitHubUsername,
		Recurring:      repo.PricingType().IsSubscription(),
		SuccessURL:     cmd.SuccessURL,
		CancelURL:      cmd.CancelURL,
	})
	if err != nil {
		uc.logger.Errorw("failed to create checkout session",
			"order_no", p.OrderNo(),
			"provider", repo.PaymentProvider(),
			"error", err,
		)
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	uc.logger.Infow("checkout session created",
		"order_no", p.OrderNo(),
		"repository", repo.Slug(),
		"provider", repo.PaymentProvider(),
		"amount_cents", p.AmountCents(),
	)

	purchaseID := p.ID()
	repoName := repo.Name()
	email := cmd.Email
	goroutine.SafeGo(uc.logger, "checkout-confirmation-email", func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := uc.notifier.SendConfirmation(sendCtx, email, repoName); err != nil {
			uc.logger.Warnw("failed to send confirmation email", "order_no", p.OrderNo(), "error", err)
			uc.audit.Record(sendCtx, &purchaseID, vo.LogActionEmailSentConfirmation, vo.LogStatusFailed, err.Error())
			return
		}
		uc.audit.Record(sendCtx, &purchaseID, vo.LogActionEmailSentConfirmation, vo.LogStatusSuccess, "")
	})

	return &CreateCheckoutResult{
		OrderNo:     p.OrderNo(),
		CheckoutURL: checkoutURL,
	}, nil
}

func (uc *CreateCheckoutUseCase) initializedGateway(ctx context.Context, repo *catalog.Repository) (gateway.Gateway, error) {
	if repo.PaymentProvider() == "" {
		return nil, apperrors.NewConflictError("repository has no payment provider selected")
	}
	creds, err := uc.credentials.GetByOwnerID(ctx, repo.OwnerID())
	if err != nil {
		return nil, fmt.Errorf("failed to load provider credentials: %w", err)
	}
	if creds.IsZero() {
		return nil, apperrors.NewConflictError("seller has not configured payment credentials")
	}
	if creds.Provider() != repo.PaymentProvider() {
		return nil, apperrors.NewConflictError("configured credentials do not match the repository's payment provider")
	}
	return uc.gateways.NewInitialized(repo.PaymentProvider(), creds)
}

// ensureRemoteProduct creates the provider-side product and price the
// first time a repository is sold, persisting the returned references.
func (uc *CreateCheckoutUseCase) ensureRemoteProduct(ctx context.Context, gw gateway.Gateway, repo *catalog.Repository) error {
	if repo.HasProviderProduct() {
		return nil
	}

	price := gateway.PriceDetails{
		AmountCents: repo.PriceCents(),
		Currency:    "usd",
	}
	if repo.PricingType().IsSubscription() && repo.Cadence() != nil {
		price.Recurring = true
		price.Interval = repo.Cadence().BillingInterval()
	}

	result, err := gw.CreateProduct(ctx, gateway.ProductDetails{
		Name:        repo.Name(),
		Description: repo.Description(),
		CoverURL:    repo.CoverImageURL(),
		Price:       price,
	})
	if err != nil {
		return fmt.Errorf("failed to create provider product: %w", err)
	}

	repo.SetProviderIDs(result.ProductID, result.PriceID)
	if err := uc.repos.Update(ctx, repo); err != nil {
		return fmt.Errorf("failed to store provider product refs: %w", err)
	}

	uc.logger.Infow("provider product created",
		"repository", repo.Slug(),
		"provider", repo.PaymentProvider(),
		"product_id", result.ProductID,
	)
	return nil
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
