package handlers

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/pilgrim-quotes/internal/http/response"
	"github.com/diagnosis/pilgrim-quotes/pkg/auth"
	"github.com/diagnosis/pilgrim-quotes/pkg/logger"
	"github.com/diagnosis/pilgrim-quotes/services/gateway/internal/proxy"
)

type Handlers struct {
	marketplace *proxy.ServiceProxy
	notify      *proxy.ServiceProxy
	jwtSecret   string
}

func New(marketplace, notify *proxy.ServiceProxy, jwtSecret string) *Handlers {
	return &Handlers{marketplace: marketplace, notify: notify, jwtSecret: jwtSecret}
}

// Routes mounts the public /v1 API. The marketplace makes every authorization decision;
// the gateway only turns away callers whose role can never succeed on a route group.
func (h *Handlers) Routes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.With(h.RequireRole("operator", "admin")).Handle("/operator/*", h.forward(h.marketplace))
		r.With(h.RequireRole("admin")).Get("/notify/stats", h.forwardTo(h.notify, "/stats"))
		r.Handle("/*", h.forward(h.marketplace))
	})
}

// forward strips the /v1 prefix and proxies the rest of the path unchanged.
func (h *Handlers) forward(p *proxy.ServiceProxy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/v1")
		h.proxyRequest(w, r, p, path)
	}
}

func (h *Handlers) forwardTo(p *proxy.ServiceProxy, path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.proxyRequest(w, r, p, path)
	}
}

func (h *Handlers) proxyRequest(w http.ResponseWriter, r *http.Request, p *proxy.ServiceProxy, path string) {
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	headers := r.Header.Clone()
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		if prior := headers.Get("X-Forwarded-For"); prior != "" {
			host = prior + ", " + host
		}
		headers.Set("X-Forwarded-For", host)
	}

	resp, err := p.ProxyRequest(r.Context(), r.Method, path, r.Body, headers)
	if err != nil {
		logger.ErrorContext(r.Context(), "Service proxy error", "service", p.Name(), "error", err, "path", path)
		response.WriteError(w, http.StatusServiceUnavailable, "Service unavailable", response.CodeUnavailable)
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.ErrorContext(r.Context(), "Failed to copy response body", "error", err)
	}
}

// RequireRole rejects requests without a valid bearer token carrying one of roles.
func (h *Handlers) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.Unauthorized(w, "Missing or invalid authorization header")
				return
			}

			claims, err := auth.Parse(strings.TrimPrefix(authHeader, "Bearer "), h.jwtSecret)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "Invalid token", response.CodeInvalidToken)
				return
			}

			allowed := false
			for _, role := range roles {
				if claims.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				response.Forbidden(w, "Insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
