package usecases

import (
	"context"
	"sync"

	"github.com/repogate-inc/repogate/internal/domain/catalog"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
)

type fakeCatalogStore struct {
	mu      sync.Mutex
	nextID  uint
	byID    map[uint]*catalog.Repository
	updates int
}

func newFakeCatalogStore(repos ...*catalog.Repository) *fakeCatalogStore {
	s := &fakeCatalogStore{nextID: 100, byID: make(map[uint]*catalog.Repository)}
	for _, r := range repos {
		s.byID[r.ID()] = r
	}
	return s
}

func (s *fakeCatalogStore) Create(ctx context.Context, r *catalog.Repository) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.SetID(s.nextID)
	s.nextID++
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

type fakePricingHistoryStore struct {
	mu      sync.Mutex
	nextID  uint
	entries []*catalog.PricingHistory
}

func newFakePricingHistoryStore() *fakePricingHistoryStore {
	return &fakePricingHistoryStore{nextID: 1}
}

func (s *fakePricingHistoryStore) Create(ctx context.Context, h *catalog.PricingHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.SetID(s.nextID)
	s.nextID++
	s.entries = append(s.entries, h)
	return nil
}

func (s *fakePricingHistoryStore) GetOpenByRepositoryID(ctx context.Context, repositoryID uint) (*catalog.PricingHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.entries {
		if h.RepositoryID() == repositoryID && h.IsOpen() {
			return h, nil
		}
	}
	return nil, nil
}

func (s *fakePricingHistoryStore) Update(ctx context.Context, h *catalog.PricingHistory) error {
	return nil
}

func (s *fakePricingHistoryStore) ListByRepositoryID(ctx context.Context, repositoryID uint) ([]*catalog.PricingHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*catalog.PricingHistory
	for _, h := range s.entries {
		if h.RepositoryID() == repositoryID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *fakePricingHistoryStore) openCount(repositoryID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.entries {
		if h.RepositoryID() == repositoryID && h.IsOpen() {
			n++
		}
	}
	return n
}
