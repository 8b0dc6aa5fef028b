package repository

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
)

// memTable is a mutex-guarded collection of values keyed by id. Rows are cloned on the
// way in and out so callers never share pointer fields with the stored copy.
type memTable[T any] struct {
	mu    sync.RWMutex
	rows  map[string]T
	id    func(T) string
	cmp   func(a, b T) int
	clone func(T) T
}

func newMemTable[T any](id func(T) string, cmp func(a, b T) int, clone func(T) T) *memTable[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &memTable[T]{rows: make(map[string]T), id: id, cmp: cmp, clone: clone}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneRequest(r domain.QuoteRequest) domain.QuoteRequest {
	r.DateWindow = clonePtr(r.DateWindow)
	r.BudgetRange = clonePtr(r.BudgetRange)
	return r
}

func clonePackage(p domain.Package) domain.Package {
	p.HotelMakkahStars = clonePtr(p.HotelMakkahStars)
	p.HotelMadinahStars = clonePtr(p.HotelMadinahStars)
	return p
}

func cloneOperator(o domain.OperatorProfile) domain.OperatorProfile {
	o.Branding = clonePtr(o.Branding)
	return o
}

func (t *memTable[T]) list(keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		if keep == nil || keep(row) {
			out = append(out, t.clone(row))
		}
	}
	slices.SortFunc(out, t.cmp)
	return out
}

func (t *memTable[T]) get(id string) (*T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	row = t.clone(row)
	return &row, true
}

func (t *memTable[T]) find(match func(T) bool) *T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, row := range t.rows {
		if match(row) {
			row = t.clone(row)
			return &row
		}
	}
	return nil
}

func (t *memTable[T]) put(row T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[t.id(row)] = t.clone(row)
}

func (t *memTable[T]) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rows, id)
}

// NewMemoryStore returns an empty process-local Store.
func NewMemoryStore() *Store {
	return &Store{
		Requests:       &memoryRequests{t: newMemTable(func(r domain.QuoteRequest) string { return r.ID }, compareRequests, cloneRequest)},
		Offers:         &memoryOffers{t: newMemTable(func(o domain.Offer) string { return o.ID }, compareOffers, nil)},
		Packages:       &memoryPackages{t: newMemTable(func(p domain.Package) string { return p.ID }, comparePackages, clonePackage)},
		BookingIntents: &memoryIntents{t: newMemTable(func(b domain.BookingIntent) string { return b.ID }, compareIntents, nil)},
		Operators:      &memoryOperators{t: newMemTable(func(o domain.OperatorProfile) string { return o.ID }, compareOperators, cloneOperator)},
		Users:          &memoryUsers{t: newMemTable(func(u domain.User) string { return u.ID }, compareUsers, nil)},
	}
}

type memoryRequests struct {
	t *memTable[domain.QuoteRequest]
}

func (r *memoryRequests) List(context.Context) ([]domain.QuoteRequest, error) {
	return r.t.list(nil), nil
}

func (r *memoryRequests) GetByID(_ context.Context, id string) (*domain.QuoteRequest, error) {
	req, _ := r.t.get(id)
	return req, nil
}

func (r *memoryRequests) Save(_ context.Context, req *domain.QuoteRequest) error {
	r.t.put(*req)
	return nil
}

type memoryOffers struct{ t *memTable[domain.Offer] }

func (r *memoryOffers) List(context.Context) ([]domain.Offer, error) {
	return r.t.list(nil), nil
}

func (r *memoryOffers) GetByID(_ context.Context, id string) (*domain.Offer, error) {
	o, _ := r.t.get(id)
	return o, nil
}

func (r *memoryOffers) ListByRequest(_ context.Context, requestID string) ([]domain.Offer, error) {
	return r.t.list(func(o domain.Offer) bool { return o.RequestID == requestID }), nil
}

func (r *memoryOffers) ListByOperator(_ context.Context, operatorID string) ([]domain.Offer, error) {
	return r.t.list(func(o domain.Offer) bool { return o.OperatorID == operatorID }), nil
}

func (r *memoryOffers) Save(_ context.Context, offer *domain.Offer) error {
	r.t.put(*offer)
	return nil
}

type memoryPackages struct{ t *memTable[domain.Package] }

func (r *memoryPackages) List(context.Context) ([]domain.Package, error) {
	return r.t.list(nil), nil
}

func (r *memoryPackages) GetByID(_ context.Context, id string) (*domain.Package, error) {
	p, _ := r.t.get(id)
	return p, nil
}

func (r *memoryPackages) GetBySlug(_ context.Context, slug string) (*domain.Package, error) {
	return r.t.find(func(p domain.Package) bool { return p.Slug == slug }), nil
}

func (r *memoryPackages) Save(_ context.Context, pkg *domain.Package) error {
	r.t.put(*pkg)
	return nil
}

func (r *memoryPackages) Update(_ context.Context, pkg *domain.Package, expectedVersion int) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	current, ok := r.t.rows[pkg.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if current.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	pkg.Version = expectedVersion + 1
	r.t.rows[pkg.ID] = clonePackage(*pkg)
	return nil
}

func (r *memoryPackages) Delete(_ context.Context, id string) error {
	r.t.remove(id)
	return nil
}

type memoryIntents struct {
	t *memTable[domain.BookingIntent]
}

func (r *memoryIntents) List(context.Context) ([]domain.BookingIntent, error) {
	return r.t.list(nil), nil
}

func (r *memoryIntents) Save(_ context.Context, intent *domain.BookingIntent) error {
	r.t.put(*intent)
	return nil
}

type memoryOperators struct {
	t *memTable[domain.OperatorProfile]
}

func (r *memoryOperators) List(context.Context) ([]domain.OperatorProfile, error) {
	return r.t.list(nil), nil
}

func (r *memoryOperators) GetByID(_ context.Context, id string) (*domain.OperatorProfile, error) {
	op, _ := r.t.get(id)
	return op, nil
}

func (r *memoryOperators) Save(_ context.Context, op *domain.OperatorProfile) error {
	r.t.put(*op)
	return nil
}

type memoryUsers struct{ t *memTable[domain.User] }

func (r *memoryUsers) List(context.Context) ([]domain.User, error) {
	return r.t.list(nil), nil
}

func (r *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, _ := r.t.get(id)
	return u, nil
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.t.find(func(u domain.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (r *memoryUsers) Save(_ context.Context, user *domain.User) error {
	r.t.put(*user)
	return nil
}
