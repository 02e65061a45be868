package usecases

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/repogate-inc/repogate/internal/application/payment/gateway"
	"github.com/repogate-inc/repogate/internal/domain/catalog"
	catalogvo "github.com/repogate-inc/repogate/internal/domain/catalog/valueobjects"
	"github.com/repogate-inc/repogate/internal/domain/merchant"
	purchasedomain "github.com/repogate-inc/repogate/internal/domain/purchase"
	vo "github.com/repogate-inc/repogate/internal/domain/purchase/valueobjects"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
)

// fakeCatalogStore serves repositories by id and slug.
type fakeCatalogStore struct {
	mu      sync.Mutex
	byID    map[uint]*catalog.Repository
	updates int
}

func newFakeCatalogStore(repos ...*catalog.Repository) *fakeCatalogStore {
	s := &fakeCatalogStore{byID: make(map[uint]*catalog.Repository)}
	for _, r := range repos {
		s.byID[r.ID()] = r
	}
	return s
}

func (s *fakeCatalogStore) Create(ctx context.Context, r *catalog.Repository) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[r.ID()] = r
	return nil
}

func (s *fakeCatalogStore) Update(ctx context.Context, r *catalog.Repository) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	s.byID[r.ID()] = r
	return nil
}

func (s *fakeCatalogStore) GetByID(ctx context.Context, id uint) (*catalog.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.byID[id]; ok {
		return r, nil
	}
	return nil, apperrors.NewNotFoundError("repository not found")
}

func (s *fakeCatalogStore) GetBySlug(ctx context.Context, slug string) (*catalog.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.byID {
		if r.Slug() == slug {
			return r, nil
		}
	}
	return nil, apperrors.NewNotFoundError("repository not found")
}

func (s *fakeCatalogStore) ListByOwnerID(ctx context.Context, ownerID uint) ([]*catalog.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*catalog.Repository
	for _, r := range s.byID {
		if r.OwnerID() == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakePurchaseRepo keeps purchases in memory and mimics the lookup
// semantics of the real store.
type fakePurchaseRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*purchasedomain.Purchase
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{nextID: 1, byID: make(map[uint]*purchasedomain.Purchase)}
}

func (r *fakePurchaseRepo) Create(ctx context.Context, p *purchasedomain.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.SetID(r.nextID)
	r.nextID++
	r.byID[p.ID()] = p
	p.CommitVersion()
	return nil
}

func (r *fakePurchaseRepo) Update(ctx context.Context, p *purchasedomain.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.byID[p.ID()]; ok && stored != p && stored.Version() != p.LoadedVersion() {
		return purchasedomain.ErrStaleVersion
	}
	r.byID[p.ID()] = p
	p.CommitVersion()
	return nil
}

func (r *fakePurchaseRepo) GetByID(ctx context.Context, id uint) (*purchasedomain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byID[id]; ok {
		return p, nil
	}
	return nil, apperrors.NewNotFoundError("purchase not found")
}

func (r *fakePurchaseRepo) GetByOrderNo(ctx context.Context, orderNo string) (*purchasedomain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.OrderNo() == orderNo {
			return p, nil
		}
	}
	return nil, apperrors.NewNotFoundError("purchase not found")
}

func (r *fakePurchaseRepo) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*purchasedomain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.SubscriptionID() != nil && *p.SubscriptionID() == subscriptionID {
			return p, nil
		}
	}
	return nil, apperrors.NewNotFoundError("purchase not found")
}

func (r *fakePurchaseRepo) GetActiveByRepoAndUsername(ctx context.Context, repositoryID uint, githubUsername string) (*purchasedomain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.RepositoryID() == repositoryID && p.GitHubUsername() == githubUsername && p.AccessStatus() == vo.AccessStatusActive {
			return p, nil
		}
	}
	return nil, apperrors.NewNotFoundError("purchase not found")
}

func (r *fakePurchaseRepo) GetByRepoAndUsername(ctx context.Context, repositoryID uint, githubUsername string) (*purchasedomain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *purchasedomain.Purchase
	for _, p := range r.byID {
		if p.RepositoryID() != repositoryID || p.GitHubUsername() != githubUsername {
			continue
		}
		if latest == nil || p.CreatedAt().After(latest.CreatedAt()) {
			latest = p
		}
	}
	if latest == nil {
		return nil, apperrors.NewNotFoundError("purchase not found")
	}
	return latest, nil
}

func (r *fakePurchaseRepo) GetLatestPendingByRepoAndUsername(ctx context.Context, repositoryID uint, githubUsername string) (*purchasedomain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *purchasedomain.Purchase
	for _, p := range r.byID {
		if p.RepositoryID() != repositoryID || p.GitHubUsername() != githubUsername || p.Status() != vo.StatusPending {
			continue
		}
		if latest == nil || p.CreatedAt().After(latest.CreatedAt()) {
			latest = p
		}
	}
	if latest == nil {
		return nil, apperrors.NewNotFoundError("purchase not found")
	}
	return latest, nil
}

func (r *fakePurchaseRepo) ListGrantPending(ctx context.Context, limit int) ([]*purchasedomain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*purchasedomain.Purchase
	for _, p := range r.byID {
		if p.GrantPending() {
			out = append(out, p)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakePurchaseRepo) ListByRepositoryID(ctx context.Context, repositoryID uint) ([]*purchasedomain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*purchasedomain.Purchase
	for _, p := range r.byID {
		if p.RepositoryID() == repositoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePurchaseRepo) ListByAccessStatus(ctx context.Context, status vo.AccessStatus) ([]*purchasedomain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*purchasedomain.Purchase
	for _, p := range r.byID {
		if p.AccessStatus() == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePurchaseRepo) CountActiveByRepositoryID(ctx context.Context, repositoryID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.byID {
		if p.RepositoryID() == repositoryID && p.AccessStatus() == vo.AccessStatusActive {
			n++
		}
	}
	return n, nil
}

// fakeGranter records collaborator calls and returns scripted errors.
type fakeGranter struct {
	mu        sync.Mutex
	addErr    error
	removeErr error
	added     []string
	removed   []string
}

func (g *fakeGranter) AddCollaboratorWithRetry(ctx context.Context, owner, repo, username string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.addErr != nil {
		return g.addErr
	}
	g.added = append(g.added, owner+"/"+repo+":"+username)
	return nil
}

func (g *fakeGranter) RemoveCollaborator(ctx context.Context, owner, repo, username string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.removeErr != nil {
		return g.removeErr
	}
	g.removed = append(g.removed, owner+"/"+repo+":"+username)
	return nil
}

// fakeNotifier counts sends; sync because tests wait on async sends via
// waitFor helpers only where behavior matters.
type fakeNotifier struct {
	mu            sync.Mutex
	confirmations int
	granted       int
	revocations   int
	renewals      int
	adminAlerts   int
	lastReason    string
}

func (n *fakeNotifier) SendConfirmation(ctx context.Context, to, repoName string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmations++
	return nil
}

func (n *fakeNotifier) SendAccessGranted(ctx context.Context, to, repoName, githubRepo string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.granted++
	return nil
}

func (n *fakeNotifier) SendRevocation(ctx context.Context, to, repoName, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.revocations++
	n.lastReason = reason
	return nil
}

func (n *fakeNotifier) SendRenewal(ctx context.Context, to, repoName string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.renewals++
	return nil
}

func (n *fakeNotifier) SendAdminAlert(ctx context.Context, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.adminAlerts++
	return nil
}

// fakeAudit records entries in order.
type auditEntry struct {
	purchaseID *uint
	action     vo.LogAction
	status     vo.LogStatus
	details    string
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *fakeAudit) Record(ctx context.Context, purchaseID *uint, action vo.LogAction, status vo.LogStatus, details string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{purchaseID, action, status, details})
}

func (a *fakeAudit) has(action vo.LogAction, status vo.LogStatus) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.entries {
		if e.action == action && e.status == status {
			return true
		}
	}
	return false
}

// fakeGateway scripts adapter behavior for checkout tests.
type fakeGateway struct {
	provider       merchant.Provider
	createdProduct bool
	checkoutURL    string
	canceledSubs   []string
}

func (g *fakeGateway) Provider() merchant.Provider { return g.provider }

func (g *fakeGateway) Initialize(creds merchant.Credentials) error { return nil }

func (g *fakeGateway) CreateProduct(ctx context.Context, details gateway.ProductDetails) (*gateway.CreateProductResult, error) {
	g.createdProduct = true
	return &gateway.CreateProductResult{ProductID: "prod_fake", PriceID: "price_fake"}, nil
}

func (g *fakeGateway) UpdateProduct(ctx context.Context, productID string, details gateway.ProductDetails) error {
	return nil
}

func (g *fakeGateway) UpdatePrice(ctx context.Context, productID string, price gateway.PriceDetails) (string, error) {
	return "price_fake2", nil
}

func (g *fakeGateway) CreateCheckoutURL(ctx context.Context, req gateway.CheckoutRequest) (string, error) {
	if g.checkoutURL != "" {
		return g.checkoutURL, nil
	}
	return "https://pay.example.com/" + req.OrderNo, nil
}

func (g *fakeGateway) VerifyWebhook(req *http.Request, body []byte) error { return nil }

func (g *fakeGateway) ParseWebhook(req *http.Request, body []byte) (*gateway.WebhookEvent, error) {
	return nil, nil
}

func (g *fakeGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	g.canceledSubs = append(g.canceledSubs, subscriptionID)
	return nil
}

type fakeFactory struct {
	gw *fakeGateway
}

func (f *fakeFactory) New(provider merchant.Provider) (gateway.Gateway, error) {
	return f.gw, nil
}

func (f *fakeFactory) NewInitialized(provider merchant.Provider, creds merchant.Credentials) (gateway.Gateway, error) {
	return f.gw, nil
}

// paid one-time listing used across tests
func newPaidRepo(t *testing.T) *catalog.Repository {
	t.Helper()
	repo, err := catalog.NewRepository(10, "secret-widgets", "Secret Widgets", "acme", "widgets", catalogvo.PricingTypeOneTime, 4900, nil, nil)
	require.NoError(t, err)
	repo.SetID(1)
	require.NoError(t, repo.SelectPaymentProvider(merchant.ProviderStripe))
	return repo
}

func newFreeRepo(t *testing.T) *catalog.Repository {
	t.Helper()
	repo, err := catalog.NewRepository(10, "free-widgets", "Free Widgets", "acme", "free-widgets", catalogvo.PricingTypeFree, 0, nil, nil)
	require.NoError(t, err)
	repo.SetID(2)
	return repo
}

func newSubscriptionRepo(t *testing.T) *catalog.Repository {
	t.Helper()
	cadence := catalogvo.CadenceMonthly
	repo, err := catalog.NewRepository(10, "widgets-pro", "Widgets Pro", "acme", "widgets-pro", catalogvo.PricingTypeSubscription, 900, &cadence, nil)
	require.NoError(t, err)
	repo.SetID(3)
	require.NoError(t, repo.SelectPaymentProvider(merchant.ProviderStripe))
	return repo
}
