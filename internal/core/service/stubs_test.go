package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory identity store
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	stored := cloneUser(user)
	stored.ID = r.nextID
	r.users[stored.ID] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

// setRole mimics an operator editing the row directly.
func (r *stubUserRepo) setRole(id int64, role string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id].Role = role
}

func (r *stubUserRepo) remove(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

// ---------------------------------------------------------------------------
// In-memory inventory store
// ---------------------------------------------------------------------------

type stubSweetRepo struct {
	mu     sync.Mutex
	nextID int64
	sweets map[int64]*domain.Sweet
	listFn func() error
}

func newStubSweetRepo() *stubSweetRepo {
	return &stubSweetRepo{sweets: make(map[int64]*domain.Sweet)}
}

func cloneSweet(s *domain.Sweet) *domain.Sweet {
	clone := *s
	return &clone
}

func (r *stubSweetRepo) Create(_ context.Context, s *domain.Sweet) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := cloneSweet(s)
	stored.ID = r.nextID
	r.sweets[stored.ID] = stored
	return cloneSweet(stored), nil
}

func (r *stubSweetRepo) FindByID(_ context.Context, id int64) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	return cloneSweet(s), nil
}

// List applies the same predicates the real stores do.
func (r *stubSweetRepo) List(_ context.Context, f ports.SweetFilter, page domain.Page) ([]*domain.Sweet, int64, error) {
	if r.listFn != nil {
		if err := r.listFn(); err != nil {
			return nil, 0, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	contains := func(haystack, needle string) bool {
		return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
	}

	var matched []*domain.Sweet
	for _, s := range r.sweets {
		if f.Query != "" && !contains(s.Name, f.Query) && !contains(s.Category, f.Query) {
			continue
		}
		if f.Name != "" && !contains(s.Name, f.Name) {
			continue
		}
		if f.Category != "" && !contains(s.Category, f.Category) {
			continue
		}
		if f.MinPrice != nil && s.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && s.Price > *f.MaxPrice {
			continue
		}
		matched = append(matched, cloneSweet(s))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	start := page.Offset()
	if start > len(matched) {
		return []*domain.Sweet{}, total, nil
	}
	end := start + page.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *stubSweetRepo) Update(_ context.Context, id int64, p ports.SweetPatch) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.Quantity != nil {
		s.Quantity = *p.Quantity
	}
	return cloneSweet(s), nil
}

func (r *stubSweetRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sweets[id]; !ok {
		return domain.ErrSweetNotFound
	}
	delete(r.sweets, id)
	return nil
}

func (r *stubSweetRepo) AdjustQuantity(_ context.Context, id int64, delta int64) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	if s.Quantity+delta < 0 {
		return nil, domain.ErrInsufficientStock
	}
	s.Quantity += delta
	return cloneSweet(s), nil
}

func (r *stubSweetRepo) quantity(id int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweets[id].Quantity
}

// ---------------------------------------------------------------------------
// Ledger and idempotency stubs
// ---------------------------------------------------------------------------

type stubMovementRepo struct {
	mu        sync.Mutex
	movements []*domain.StockMovement
	appendErr error
}

func (r *stubMovementRepo) Append(_ context.Context, m *domain.StockMovement) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *m
	clone.ID = int64(len(r.movements) + 1)
	r.movements = append(r.movements, &clone)
	return nil
}

func (r *stubMovementRepo) ListBySweet(_ context.Context, sweetID int64, page domain.Page) ([]*domain.StockMovement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.StockMovement
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].SweetID == sweetID {
			matched = append(matched, r.movements[i])
		}
	}
	total := int64(len(matched))
	start := page.Offset()
	if start > len(matched) {
		return nil, total, nil
	}
	end := start + page.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *stubMovementRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.movements)
}

type stubReplayStore struct {
	mu       sync.Mutex
	pending  map[string]bool
	results  map[string]*domain.Sweet
	claimErr error
}

func newStubReplayStore() *stubReplayStore {
	return &stubReplayStore{pending: map[string]bool{}, results: map[string]*domain.Sweet{}}
}

func (s *stubReplayStore) Claim(_ context.Context, _ int64, key string) (*domain.Sweet, error) {
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.results[key]; ok {
		return cloneSweet(r), nil
	}
	if s.pending[key] {
		return nil, domain.ErrDuplicateRequest
	}
	s.pending[key] = true
	return nil, nil
}

func (s *stubReplayStore) Complete(_ context.Context, _ int64, key string, result *domain.Sweet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
	s.results[key] = cloneSweet(result)
	return nil
}

func (s *stubReplayStore) Release(_ context.Context, _ int64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
	return nil
}
