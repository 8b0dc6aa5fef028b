package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/pilgrim-quotes/pkg/auth"
	"github.com/diagnosis/pilgrim-quotes/services/gateway/internal/proxy"
)

const secret = "gateway-test-secret"

type seen struct {
	method, path, query, body, auth, forwarded, forwardedFor string
}

type recorder struct {
	mu   sync.Mutex
	last seen
}

func (rec *recorder) get() seen {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.last
}

func upstream(t *testing.T, name string, rec *recorder) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.last = seen{r.Method, r.URL.Path, r.URL.RawQuery, string(body), r.Header.Get("Authorization"), r.Header.Get("X-Gateway-Forwarded"), r.Header.Get("X-Forwarded-For")}
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream", name)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"from": name})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func gateway(t *testing.T, marketURL, notifyURL string) *httptest.Server {
	t.Helper()
	h := New(
		proxy.NewServiceProxy("marketplace", marketURL, 5*time.Second),
		proxy.NewServiceProxy("notify", notifyURL, 5*time.Second),
		secret,
	)
	r := chi.NewRouter()
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := auth.NewSessionToken(sub, sub+"@example.com", role, secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, method, url, bearer, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestForwardsToMarketplace(t *testing.T) {
	rec := &recorder{}
	market := upstream(t, "marketplace", rec)
	gw := gateway(t, market.URL, "http://127.0.0.1:1")

	resp := do(t, http.MethodPost, gw.URL+"/v1/requests?x=1", "abc", `{"type":"umrah"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "marketplace", resp.Header.Get("X-Upstream"))

	got := rec.get()
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/requests", got.path)
	assert.Equal(t, "x=1", got.query)
	assert.Equal(t, `{"type":"umrah"}`, got.body)
	assert.Equal(t, "Bearer abc", got.auth)
	assert.Equal(t, "true", got.forwarded)
	assert.Equal(t, "127.0.0.1", got.forwardedFor, "gateway appends the peer it saw")
}

func TestOperatorRoutesNeedOperatorRole(t *testing.T) {
	rec := &recorder{}
	market := upstream(t, "marketplace", rec)
	gw := gateway(t, market.URL, "http://127.0.0.1:1")

	resp := do(t, http.MethodGet, gw.URL+"/v1/operator/packages", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodGet, gw.URL+"/v1/operator/packages", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodGet, gw.URL+"/v1/operator/packages", token(t, "cust-1", "customer"), "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, rec.get().path)

	resp = do(t, http.MethodGet, gw.URL+"/v1/operator/packages", token(t, "op-1", "operator"), "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/operator/packages", rec.get().path)
}

func TestNotifyStatsAdminOnly(t *testing.T) {
	rec := &recorder{}
	notify := upstream(t, "notify", rec)
	gw := gateway(t, "http://127.0.0.1:1", notify.URL)

	resp := do(t, http.MethodGet, gw.URL+"/v1/notify/stats", token(t, "op-1", "operator"), "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, http.MethodGet, gw.URL+"/v1/notify/stats", token(t, "admin-1", "admin"), "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/stats", rec.get().path)
}

func TestUpstreamDown(t *testing.T) {
	gw := gateway(t, "http://127.0.0.1:1", "http://127.0.0.1:1")

	resp := do(t, http.MethodGet, gw.URL+"/v1/packages", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "SERVICE_UNAVAILABLE", body["code"])
}
