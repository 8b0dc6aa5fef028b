package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/pilgrim-quotes/pkg/auth"
	"github.com/diagnosis/pilgrim-quotes/pkg/config"
	"github.com/diagnosis/pilgrim-quotes/pkg/events"
	"github.com/diagnosis/pilgrim-quotes/pkg/logger"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/compare"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/handlers"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/repository"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/service"
)

const secret = "handler-test-secret"

type api struct {
	t   *testing.T
	srv *httptest.Server
}

func newAPI(t *testing.T) *api {
	t.Helper()
	logger.SetDefault(slog.New(slog.NewJSONHandler(io.Discard, nil)))

	store := repository.NewMemoryStore()
	require.NoError(t, repository.SeedIfEmpty(context.Background(), store))

	h := handlers.New(service.NewMarketplace(store, events.NopEventBus{}), config.AuthConfig{
		JWTSecret:        secret,
		SessionTTL:       time.Hour,
		DevLogin:         true,
		SessionRateLimit: 100,
		SessionBurst:     100,
	}, nil)

	r := chi.NewRouter()
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &api{t: t, srv: srv}
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := auth.NewSessionToken(sub, sub+"@example.com", role, secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (a *api) do(method, path, tok string, body any, headers ...string) (*http.Response, []byte) {
	a.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rdr)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func TestSessionLogin(t *testing.T) {
	a := newAPI(t)

	resp, body := a.do(http.MethodPost, "/auth/session", "", map[string]string{"email": "Aisha@Example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	session := decode[map[string]any](t, body)
	assert.Equal(t, "cust-1", session["user_id"])
	assert.Equal(t, "customer", session["role"])

	resp, _ = a.do(http.MethodGet, "/requests", session["token"].(string), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = a.do(http.MethodPost, "/auth/session", "", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = a.do(http.MethodPost, "/auth/session", "", map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPublicCatalogue(t *testing.T) {
	a := newAPI(t)

	resp, body := a.do(http.MethodGet, "/packages", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pkgs := decode[[]domain.Package](t, body)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "ramadan-umrah-premium", pkgs[0].Slug)

	resp, _ = a.do(http.MethodGet, "/packages/ramadan-umrah-premium", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = a.do(http.MethodGet, "/packages/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "Not found")

	resp, body = a.do(http.MethodPost, "/packages/compare", "", map[string][]string{"ids": {"pkg-sample-1"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rows := decode[[]compare.ComparisonRow](t, body)
	assert.Equal(t, "From GBP 1899", rows[0].Price)

	resp, body = a.do(http.MethodPost, "/packages/compare", "", map[string][]string{"ids": {"a", "b", "c", "d"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "You can compare up to 3 packages")

	resp, body = a.do(http.MethodGet, "/operators", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.OperatorProfile](t, body), 3)

	resp, _ = a.do(http.MethodGet, "/operators/op-404", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	a := newAPI(t)

	resp, _ := a.do(http.MethodGet, "/requests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = a.do(http.MethodGet, "/requests", token(t, "x-1", "guest"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := a.do(http.MethodPost, "/requests", token(t, "op-1", "operator"), domain.RequestInput{Type: domain.PilgrimageUmrah})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), `"Unauthorized"`)
}

func TestQuoteFlow(t *testing.T) {
	a := newAPI(t)
	cust := token(t, "cust-1", "customer")
	opA := token(t, "op-1", "operator")
	opB := token(t, "op-2", "operator")

	resp, body := a.do(http.MethodPost, "/requests", cust, domain.RequestInput{Type: domain.PilgrimageUmrah, Season: "flexible"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	req := decode[domain.QuoteRequest](t, body)

	offer := map[string]any{"price_per_person": 1500, "currency": "GBP", "operator_id": "op-2"}
	resp, body = a.do(http.MethodPost, "/requests/"+req.ID+"/offers", opA, offer)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	first := decode[domain.Offer](t, body)
	assert.Equal(t, "op-1", first.OperatorID)

	resp, body = a.do(http.MethodGet, "/requests/"+req.ID, cust, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.RequestResponded, decode[domain.QuoteRequest](t, body).Status)

	resp, body = a.do(http.MethodPost, "/requests/"+req.ID+"/offers", opB, map[string]any{"price_per_person": 2000, "currency": "GBP"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	second := decode[domain.Offer](t, body)

	resp, body = a.do(http.MethodGet, "/requests/"+req.ID+"/offers", cust, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Offer](t, body), 2)

	resp, body = a.do(http.MethodPost, "/requests/"+req.ID+"/offers/compare", cust, map[string][]string{"ids": {first.ID, second.ID}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	rows := decode[[]compare.ComparisonRow](t, body)
	assert.Equal(t, "GBP 1500", rows[0].Price)
	assert.Equal(t, "GBP 2000", rows[1].Price)

	resp, _ = a.do(http.MethodGet, "/offers/"+second.ID, opA, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = a.do(http.MethodPost, "/booking-intents", cust, domain.BookingIntentInput{OfferID: second.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, "op-2", decode[domain.BookingIntent](t, body).OperatorID)

	resp, body = a.do(http.MethodGet, "/booking-intents", opB, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.BookingIntent](t, body), 1)

	resp, body = a.do(http.MethodPost, "/requests", cust, domain.RequestInput{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Missing required fields")
}

func TestOperatorPackages(t *testing.T) {
	a := newAPI(t)
	opA := token(t, "op-1", "operator")
	opB := token(t, "op-2", "operator")

	resp, body := a.do(http.MethodPost, "/operator/packages", opA, domain.PackageInput{
		Title: "Hajj 2026 Standard", PricePerPerson: 6500, Currency: "GBP",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	pkg := decode[domain.Package](t, body)
	assert.Equal(t, domain.PackageDraft, pkg.Status)

	resp, _ = a.do(http.MethodGet, "/packages/"+pkg.Slug, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "drafts are not public")

	resp, _ = a.do(http.MethodGet, "/operator/packages/"+pkg.ID, opA, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = a.do(http.MethodGet, "/operator/packages/"+pkg.ID, opB, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = a.do(http.MethodPatch, "/operator/packages/"+pkg.ID, opA, map[string]any{"operator_id": "op-2"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = a.do(http.MethodPatch, "/operator/packages/"+pkg.ID, opB, map[string]any{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "Unauthorized")

	resp, body = a.do(http.MethodPatch, "/operator/packages/"+pkg.ID, opA, map[string]any{"status": "published", "expected_version": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, 2, decode[domain.Package](t, body).Version)

	resp, _ = a.do(http.MethodPatch, "/operator/packages/"+pkg.ID, opA, map[string]any{"title": "Late", "expected_version": 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = a.do(http.MethodPatch, "/operator/packages/missing", opA, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = a.do(http.MethodGet, "/operator/packages", opA, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Package](t, body), 2)

	resp, _ = a.do(http.MethodDelete, "/operator/packages/"+pkg.ID, opB, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = a.do(http.MethodDelete, "/operator/packages/"+pkg.ID, opA, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = a.do(http.MethodDelete, "/operator/packages/"+pkg.ID, opA, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, "deleting twice is a no-op")

	resp, _ = a.do(http.MethodGet, "/operator/packages", token(t, "cust-1", "customer"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestIdempotentCreate(t *testing.T) {
	a := newAPI(t)
	cust := token(t, "cust-1", "customer")
	in := domain.RequestInput{Type: domain.PilgrimageHajj, Season: "2026"}

	resp, first := a.do(http.MethodPost, "/requests", cust, in, "Idempotency-Key", "abc-123")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, second := a.do(http.MethodPost, "/requests", cust, in, "Idempotency-Key", "abc-123")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("Idempotent-Replayed"))
	assert.JSONEq(t, string(first), string(second))

	_, body := a.do(http.MethodGet, "/requests", cust, nil)
	assert.Len(t, decode[[]domain.QuoteRequest](t, body), 1)
}
