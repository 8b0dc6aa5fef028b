package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/pilgrim-quotes/internal/http/middleware"
	"github.com/diagnosis/pilgrim-quotes/internal/http/response"
	"github.com/diagnosis/pilgrim-quotes/pkg/config"
	"github.com/diagnosis/pilgrim-quotes/pkg/logger"
	mw "github.com/diagnosis/pilgrim-quotes/pkg/middleware"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/compare"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/service"
)

const idempotencyTTL = 24 * time.Hour

type Handlers struct {
	marketplace service.Marketplace
	auth        config.AuthConfig
	idempotency mw.IdempotencyStore
}

func New(marketplace service.Marketplace, auth config.AuthConfig, idempotency mw.IdempotencyStore) *Handlers {
	if idempotency == nil {
		idempotency = mw.NewMemoryIdempotencyStore()
	}
	return &Handlers{marketplace: marketplace, auth: auth, idempotency: idempotency}
}

// Routes mounts the marketplace API on r.
func (h *Handlers) Routes(r chi.Router) {
	if h.auth.DevLogin {
		trusted, err := middleware.ParseTrustedProxies(h.auth.TrustedProxies)
		if err != nil {
			logger.Warn("Ignoring invalid trusted proxies", "error", err)
		}
		limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
			Rate:           rateLimit(h.auth.SessionRateLimit),
			Burst:          h.auth.SessionBurst,
			TrustedProxies: trusted,
		})
		r.With(limiter.Middleware()).Post("/auth/session", h.CreateSession)
	}

	r.Get("/packages", h.ListPackages)
	r.Get("/packages/{slug}", h.GetPackageBySlug)
	r.Post("/packages/compare", h.ComparePackages)
	r.Get("/operators", h.ListOperators)
	r.Get("/operators/{id}", h.GetOperator)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireJWT(h.auth.JWTSecret))
		r.Use(mw.IdempotencyMiddleware(h.idempotency, idempotencyTTL))

		r.Route("/requests", func(r chi.Router) {
			r.Get("/", h.ListRequests)
			r.Post("/", h.CreateRequest)
			r.Get("/{id}", h.GetRequest)
			r.Get("/{id}/offers", h.ListOffersForRequest)
			r.Post("/{id}/offers", h.CreateOffer)
			r.Post("/{id}/offers/compare", h.CompareOffers)
		})
		r.Get("/offers/{id}", h.GetOffer)

		r.Get("/booking-intents", h.ListBookingIntents)
		r.Post("/booking-intents", h.CreateBookingIntent)

		r.Route("/operator/packages", func(r chi.Router) {
			r.Get("/", h.ListOperatorPackages)
			r.Post("/", h.CreatePackage)
			r.Get("/{id}", h.GetOperatorPackage)
			r.Patch("/{id}", h.UpdatePackage)
			r.Delete("/{id}", h.DeletePackage)
		})
	})
}

// requestContext turns verified claims into the caller identity. A token carrying an
// unknown role is refused rather than downgraded.
func requestContext(w http.ResponseWriter, r *http.Request) (domain.RequestContext, bool) {
	claims := middleware.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "authentication required")
		return domain.RequestContext{}, false
	}
	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		response.Forbidden(w, domain.ErrUnauthorized.Error())
		return domain.RequestContext{}, false
	}
	return domain.RequestContext{UserID: claims.Sub, Role: role}, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return false
	}
	return true
}

// writeServiceError maps marketplace errors onto HTTP. The message of a known error is
// passed through unchanged.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		response.WriteError(w, http.StatusForbidden, domain.ErrUnauthorized.Error(), response.CodeForbidden)
	case errors.Is(err, domain.ErrMissingFields):
		response.WriteError(w, http.StatusBadRequest, domain.ErrMissingFields.Error(), response.CodeMissingFields)
	case errors.Is(err, domain.ErrInvalidInput):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeInvalidInput)
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, domain.ErrNotFound.Error())
	case errors.Is(err, domain.ErrVersionConflict):
		response.Conflict(w, domain.ErrVersionConflict.Error())
	case compare.IsSelectionLimit(err):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeSelectionLimit)
	default:
		logger.ErrorContext(r.Context(), "Marketplace operation failed", "error", err, "path", r.URL.Path)
		response.InternalError(w, "Internal server error")
	}
}
