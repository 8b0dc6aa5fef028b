package repository_test

import (
	"context"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/pilgrim-quotes/pkg/config"
	"github.com/diagnosis/pilgrim-quotes/pkg/database"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/repository"
)

var t0 = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func newRedisStore(t *testing.T) (*repository.Store, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return repository.NewRedisStore(client, "test:"), client
}

// backends yields every Store implementation reachable from this test run.
func backends(t *testing.T) map[string]func(t *testing.T) *repository.Store {
	out := map[string]func(t *testing.T) *repository.Store{
		"memory": func(*testing.T) *repository.Store { return repository.NewMemoryStore() },
		"redis": func(t *testing.T) *repository.Store {
			s, _ := newRedisStore(t)
			return s
		},
	}
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		out["postgres"] = func(t *testing.T) *repository.Store {
			ctx := context.Background()
			pool, err := database.Connect(ctx, config.DatabaseConfig{URL: url, MaxConns: 4, MinConns: 1, MaxLifetime: time.Minute})
			require.NoError(t, err)
			t.Cleanup(pool.Close)
			require.NoError(t, database.Migrate(ctx, pool))
			_, err = pool.Exec(ctx, `TRUNCATE users, operators, quote_requests, offers, packages, booking_intents`)
			require.NoError(t, err)
			return repository.NewPostgresStore(pool)
		}
	}
	return out
}

func TestStoreContract(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("requests", func(t *testing.T) { testRequests(t, open(t)) })
			t.Run("offers", func(t *testing.T) { testOffers(t, open(t)) })
			t.Run("packages", func(t *testing.T) { testPackages(t, open(t)) })
			t.Run("intents", func(t *testing.T) { testIntents(t, open(t)) })
			t.Run("operators and users", func(t *testing.T) { testOperatorsAndUsers(t, open(t)) })
			t.Run("seed", func(t *testing.T) { testSeed(t, open(t)) })
		})
	}
}

func testRequests(t *testing.T, s *repository.Store) {
	ctx := context.Background()

	missing, err := s.Requests.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	second := &domain.QuoteRequest{ID: "req-b", CustomerID: "cust-1", Status: domain.RequestOpen, CreatedAt: t0.Add(time.Minute), Type: domain.PilgrimageUmrah}
	first := &domain.QuoteRequest{
		ID: "req-a", CustomerID: "cust-1", Status: domain.RequestOpen, CreatedAt: t0, Type: domain.PilgrimageHajj,
		DateWindow:  &domain.DateWindow{Start: "2025-06-01", End: "2025-06-20"},
		BudgetRange: &domain.BudgetRange{Min: 1000, Max: 2500, Currency: "GBP"},
		Occupancy:   domain.OccupancyCounts{Double: 1},
		Inclusions:  domain.Inclusions{Visa: true},
	}
	require.NoError(t, s.Requests.Save(ctx, second))
	require.NoError(t, s.Requests.Save(ctx, first))

	all, err := s.Requests.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "req-a", all[0].ID)
	assert.Equal(t, "req-b", all[1].ID)

	got, err := s.Requests.GetByID(ctx, "req-a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2025-06-20", got.DateWindow.End)
	assert.Equal(t, 2500.0, got.BudgetRange.Max)
	assert.Equal(t, 1, got.Occupancy.Double)
	assert.True(t, got.Inclusions.Visa)

	got.Status = domain.RequestResponded
	require.NoError(t, s.Requests.Save(ctx, got))
	again, err := s.Requests.GetByID(ctx, "req-a")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestResponded, again.Status)

	all, err = s.Requests.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "save of an existing id replaces it")
}

func testOffers(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	offers := []domain.Offer{
		{ID: "off-1", RequestID: "req-1", OperatorID: "op-1", CreatedAt: t0, PricePerPerson: 1500, Currency: "GBP", HotelStars: 4},
		{ID: "off-2", RequestID: "req-1", OperatorID: "op-2", CreatedAt: t0.Add(time.Second), PricePerPerson: 2000, Currency: "GBP"},
		{ID: "off-3", RequestID: "req-2", OperatorID: "op-1", CreatedAt: t0.Add(2 * time.Second), PricePerPerson: 900, Currency: "USD"},
	}
	for i := range offers {
		require.NoError(t, s.Offers.Save(ctx, &offers[i]))
	}

	byReq, err := s.Offers.ListByRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"off-1", "off-2"}, offerIDs(byReq))

	byOp, err := s.Offers.ListByOperator(ctx, "op-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"off-1", "off-3"}, offerIDs(byOp))

	none, err := s.Offers.ListByRequest(ctx, "req-404")
	require.NoError(t, err)
	assert.Empty(t, none)

	got, err := s.Offers.GetByID(ctx, "off-1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.HotelStars)
}

func offerIDs(offers []domain.Offer) []string {
	ids := make([]string, 0, len(offers))
	for _, o := range offers {
		ids = append(ids, o.ID)
	}
	return ids
}

func testPackages(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	stars := 5
	pkg := &domain.Package{
		ID: "pkg-1", OperatorID: "op-1", Title: "Umrah Economy", Slug: "umrah-economy",
		Status: domain.PackageDraft, PriceType: domain.PriceExact, PricePerPerson: 999, Currency: "GBP",
		HotelMakkahStars: &stars, DistanceBandMakkah: domain.DistanceNear, DistanceBandMadinah: domain.DistanceUnknown,
		Version: 1, CreatedAt: t0, UpdatedAt: t0,
	}
	require.NoError(t, s.Packages.Save(ctx, pkg))
	stars = 3

	bySlug, err := s.Packages.GetBySlug(ctx, "umrah-economy")
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, "pkg-1", bySlug.ID)
	assert.Equal(t, 5, *bySlug.HotelMakkahStars)
	assert.Nil(t, bySlug.HotelMadinahStars)

	noSlug, err := s.Packages.GetBySlug(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, noSlug)

	bySlug.Title = "Umrah Economy Plus"
	bySlug.Status = domain.PackagePublished
	require.NoError(t, s.Packages.Update(ctx, bySlug, 1))
	assert.Equal(t, 2, bySlug.Version)

	stored, err := s.Packages.GetByID(ctx, "pkg-1")
	require.NoError(t, err)
	assert.Equal(t, "Umrah Economy Plus", stored.Title)
	assert.Equal(t, "umrah-economy", stored.Slug)
	assert.Equal(t, 2, stored.Version)

	stale := *stored
	stale.Title = "stale write"
	assert.ErrorIs(t, s.Packages.Update(ctx, &stale, 1), domain.ErrVersionConflict)

	ghost := domain.Package{ID: "pkg-404", Version: 1}
	assert.ErrorIs(t, s.Packages.Update(ctx, &ghost, 1), domain.ErrNotFound)

	*stored.HotelMakkahStars = 1
	again, err := s.Packages.GetByID(ctx, "pkg-1")
	require.NoError(t, err)
	assert.Equal(t, 5, *again.HotelMakkahStars, "returned records are copies")

	again.Notes = "resaved"
	require.NoError(t, s.Packages.Save(ctx, again))
	all, err := s.Packages.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "resaved", all[0].Notes)

	require.NoError(t, s.Packages.Delete(ctx, "pkg-1"))
	gone, err := s.Packages.GetByID(ctx, "pkg-1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func testIntents(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.BookingIntents.Save(ctx, &domain.BookingIntent{
		ID: "bi-2", OfferID: "off-1", CustomerID: "cust-1", OperatorID: "op-1",
		Status: domain.BookingIntentPending, CreatedAt: t0.Add(time.Hour), UpdatedAt: t0.Add(time.Hour),
	}))
	require.NoError(t, s.BookingIntents.Save(ctx, &domain.BookingIntent{
		ID: "bi-1", OfferID: "off-2", CustomerID: "cust-2", OperatorID: "op-2",
		Status: domain.BookingIntentPending, CreatedAt: t0, UpdatedAt: t0,
	}))

	all, err := s.BookingIntents.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "bi-1", all[0].ID)
}

func testOperatorsAndUsers(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Operators.Save(ctx, &domain.OperatorProfile{
		ID: "op-9", CompanyName: "Zamzam Travel", VerificationStatus: domain.VerificationVerified,
		ContactEmail: "z@example.com", Branding: &domain.Branding{LogoURL: "https://cdn.example/z.png"},
	}))
	op, err := s.Operators.GetByID(ctx, "op-9")
	require.NoError(t, err)
	require.NotNil(t, op.Branding)
	assert.Equal(t, "https://cdn.example/z.png", op.Branding.LogoURL)

	require.NoError(t, s.Users.Save(ctx, &domain.User{ID: "u-1", Email: "Mixed@Example.com", Role: domain.RoleCustomer}))
	u, err := s.Users.GetByEmail(ctx, "mixed@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u-1", u.ID)

	nobody, err := s.Users.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, nobody)
}

func testSeed(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	require.NoError(t, repository.SeedIfEmpty(ctx, s))
	require.NoError(t, repository.SeedIfEmpty(ctx, s))

	ops, err := s.Operators.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ops, len(repository.SeedOperators()))

	users, err := s.Users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, len(repository.SeedUsers()))

	pkg, err := s.Packages.GetBySlug(ctx, "ramadan-umrah-premium")
	require.NoError(t, err)
	require.NotNil(t, pkg)
	assert.True(t, pkg.IsPublished())
}

func TestMemoryPackageUpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := repository.NewMemoryStore()
	require.NoError(t, s.Packages.Save(ctx, &domain.Package{ID: "pkg-1", Version: 1, CreatedAt: t0}))

	const writers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := domain.Package{ID: "pkg-1", Version: 1, CreatedAt: t0}
			if err := s.Packages.Update(ctx, &p, 1); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := repository.NewMemoryStore()

	req := &domain.QuoteRequest{ID: "r-1", CreatedAt: t0, DateWindow: &domain.DateWindow{Start: "2026-03-01"}, BudgetRange: &domain.BudgetRange{Max: 2000}}
	require.NoError(t, s.Requests.Save(ctx, req))
	req.DateWindow.Start = "changed"

	got, err := s.Requests.GetByID(ctx, "r-1")
	require.NoError(t, err)
	got.BudgetRange.Max = 1
	listed, err := s.Requests.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "2026-03-01", listed[0].DateWindow.Start)
	assert.InDelta(t, 2000, listed[0].BudgetRange.Max, 0.001)

	require.NoError(t, s.Operators.Save(ctx, &domain.OperatorProfile{ID: "op-9", Branding: &domain.Branding{PrimaryColor: "#006644"}}))
	op, err := s.Operators.GetByID(ctx, "op-9")
	require.NoError(t, err)
	op.Branding.PrimaryColor = "#000000"
	op, err = s.Operators.GetByID(ctx, "op-9")
	require.NoError(t, err)
	assert.Equal(t, "#006644", op.Branding.PrimaryColor)
}

func TestRedisPackageUpdateIgnoresOtherPackages(t *testing.T) {
	ctx := context.Background()
	s, _ := newRedisStore(t)

	const n = 8
	for i := 0; i < n; i++ {
		id := "pkg-" + strconv.Itoa(i)
		require.NoError(t, s.Packages.Save(ctx, &domain.Package{ID: id, Slug: id, Version: 1, CreatedAt: t0}))
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := domain.Package{ID: "pkg-" + strconv.Itoa(i), Title: "updated", Version: 1, CreatedAt: t0}
			errs[i] = s.Packages.Update(ctx, &p, 1)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "pkg-%d", i)
	}
	all, err := s.Packages.List(ctx)
	require.NoError(t, err)
	for _, p := range all {
		assert.Equal(t, 2, p.Version, p.ID)
		assert.Equal(t, "updated", p.Title)
	}
}

func TestRedisIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := repository.NewRedisIdempotencyStore(client, "test")

	v, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, store.Set(ctx, "k1", `{"id":"req-1"}`, time.Minute))
	v, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"req-1"}`, v)
	assert.True(t, mr.Exists("test:idem:k1"))

	mr.FastForward(2 * time.Minute)
	v, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestRedisStoreKeyLayout(t *testing.T) {
	ctx := context.Background()
	s, client := newRedisStore(t)
	require.NoError(t, s.Users.Save(ctx, &domain.User{ID: "u-1", Email: "a@example.com", Role: domain.RoleAdmin}))

	n, err := client.HLen(ctx, "test:users").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
