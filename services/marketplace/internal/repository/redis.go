package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
)

// Each collection is one hash at "<prefix>:<collection>" mapping id to a JSON document.

type kvTable[T any] struct {
	client *redis.Client
	key    string
	id     func(T) string
	cmp    func(a, b T) int
}

func newKVTable[T any](client *redis.Client, prefix, name string, id func(T) string, cmp func(a, b T) int) *kvTable[T] {
	return &kvTable[T]{client: client, key: prefix + ":" + name, id: id, cmp: cmp}
}

func (t *kvTable[T]) list(ctx context.Context, keep func(T) bool) ([]T, error) {
	raw, err := t.client.HGetAll(ctx, t.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.key, err)
	}
	out := make([]T, 0, len(raw))
	for id, doc := range raw {
		var row T
		if err := json.Unmarshal([]byte(doc), &row); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", t.key, id, err)
		}
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	slices.SortFunc(out, t.cmp)
	return out, nil
}

func (t *kvTable[T]) get(ctx context.Context, id string) (*T, error) {
	doc, err := t.client.HGet(ctx, t.key, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", t.key, id, err)
	}
	var row T
	if err := json.Unmarshal([]byte(doc), &row); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", t.key, id, err)
	}
	return &row, nil
}

func (t *kvTable[T]) find(ctx context.Context, match func(T) bool) (*T, error) {
	rows, err := t.list(ctx, match)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func (t *kvTable[T]) put(ctx context.Context, row T) error {
	doc, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode %s: %w", t.key, err)
	}
	return t.client.HSet(ctx, t.key, t.id(row), doc).Err()
}

func (t *kvTable[T]) remove(ctx context.Context, id string) error {
	return t.client.HDel(ctx, t.key, id).Err()
}

// NewRedisStore returns a Store persisted in Redis hashes under prefix.
func NewRedisStore(client *redis.Client, prefix string) *Store {
	prefix = strings.TrimSuffix(prefix, ":")
	return &Store{
		Requests:       &redisRequests{t: newKVTable(client, prefix, "requests", func(r domain.QuoteRequest) string { return r.ID }, compareRequests)},
		Offers:         &redisOffers{t: newKVTable(client, prefix, "offers", func(o domain.Offer) string { return o.ID }, compareOffers)},
		Packages:       &redisPackages{t: newKVTable(client, prefix, "packages", func(p domain.Package) string { return p.ID }, comparePackages)},
		BookingIntents: &redisIntents{t: newKVTable(client, prefix, "booking_intents", func(b domain.BookingIntent) string { return b.ID }, compareIntents)},
		Operators:      &redisOperators{t: newKVTable(client, prefix, "operators", func(o domain.OperatorProfile) string { return o.ID }, compareOperators)},
		Users:          &redisUsers{t: newKVTable(client, prefix, "users", func(u domain.User) string { return u.ID }, compareUsers)},
	}
}

type redisRequests struct{ t *kvTable[domain.QuoteRequest] }

func (r *redisRequests) List(ctx context.Context) ([]domain.QuoteRequest, error) {
	return r.t.list(ctx, nil)
}

func (r *redisRequests) GetByID(ctx context.Context, id string) (*domain.QuoteRequest, error) {
	return r.t.get(ctx, id)
}

func (r *redisRequests) Save(ctx context.Context, req *domain.QuoteRequest) error {
	return r.t.put(ctx, *req)
}

type redisOffers struct{ t *kvTable[domain.Offer] }

func (r *redisOffers) List(ctx context.Context) ([]domain.Offer, error) {
	return r.t.list(ctx, nil)
}

func (r *redisOffers) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	return r.t.get(ctx, id)
}

func (r *redisOffers) ListByRequest(ctx context.Context, requestID string) ([]domain.Offer, error) {
	return r.t.list(ctx, func(o domain.Offer) bool { return o.RequestID == requestID })
}

func (r *redisOffers) ListByOperator(ctx context.Context, operatorID string) ([]domain.Offer, error) {
	return r.t.list(ctx, func(o domain.Offer) bool { return o.OperatorID == operatorID })
}

func (r *redisOffers) Save(ctx context.Context, offer *domain.Offer) error {
	return r.t.put(ctx, *offer)
}

type redisPackages struct{ t *kvTable[domain.Package] }

func (r *redisPackages) List(ctx context.Context) ([]domain.Package, error) {
	return r.t.list(ctx, nil)
}

func (r *redisPackages) GetByID(ctx context.Context, id string) (*domain.Package, error) {
	return r.t.get(ctx, id)
}

func (r *redisPackages) GetBySlug(ctx context.Context, slug string) (*domain.Package, error) {
	return r.t.find(ctx, func(p domain.Package) bool { return p.Slug == slug })
}

func (r *redisPackages) Save(ctx context.Context, pkg *domain.Package) error {
	return r.t.put(ctx, *pkg)
}

// casField replaces one hash field only if its stored document still carries the expected
// version. Returns -1 for a missing field, 0 on a version mismatch and 1 once written.
var casField = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if not cur then
	return -1
end
if tonumber(cjson.decode(cur)['version']) ~= tonumber(ARGV[2]) then
	return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
return 1
`)

// Update compares and sets the single package field inside Redis, so writes to other
// packages in the same hash never interfere.
func (r *redisPackages) Update(ctx context.Context, pkg *domain.Package, expectedVersion int) error {
	next := *pkg
	next.Version = expectedVersion + 1
	doc, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.t.key, err)
	}

	res, err := casField.Run(ctx, r.t.client, []string{r.t.key}, pkg.ID, expectedVersion, doc).Int()
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", r.t.key, pkg.ID, err)
	}
	switch res {
	case -1:
		return domain.ErrNotFound
	case 0:
		return domain.ErrVersionConflict
	}
	pkg.Version = next.Version
	return nil
}

func (r *redisPackages) Delete(ctx context.Context, id string) error {
	return r.t.remove(ctx, id)
}

type redisIntents struct {
	t *kvTable[domain.BookingIntent]
}

func (r *redisIntents) List(ctx context.Context) ([]domain.BookingIntent, error) {
	return r.t.list(ctx, nil)
}

func (r *redisIntents) Save(ctx context.Context, intent *domain.BookingIntent) error {
	return r.t.put(ctx, *intent)
}

type redisOperators struct {
	t *kvTable[domain.OperatorProfile]
}

func (r *redisOperators) List(ctx context.Context) ([]domain.OperatorProfile, error) {
	return r.t.list(ctx, nil)
}

func (r *redisOperators) GetByID(ctx context.Context, id string) (*domain.OperatorProfile, error) {
	return r.t.get(ctx, id)
}

func (r *redisOperators) Save(ctx context.Context, op *domain.OperatorProfile) error {
	return r.t.put(ctx, *op)
}

type redisUsers struct{ t *kvTable[domain.User] }

func (r *redisUsers) List(ctx context.Context) ([]domain.User, error) {
	return r.t.list(ctx, nil)
}

func (r *redisUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.t.get(ctx, id)
}

func (r *redisUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.t.find(ctx, func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *redisUsers) Save(ctx context.Context, user *domain.User) error {
	return r.t.put(ctx, *user)
}
