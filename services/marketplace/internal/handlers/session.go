package handlers

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/diagnosis/pilgrim-quotes/internal/http/response"
	"github.com/diagnosis/pilgrim-quotes/pkg/auth"
	"github.com/diagnosis/pilgrim-quotes/pkg/logger"
)

type sessionRequest struct {
	Email string `json:"email"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateSession issues a session token for a seeded user by email. It stands in for a real
// identity provider and is only mounted when dev login is enabled.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var in sessionRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.marketplace.FindUserByEmail(r.Context(), in.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if user == nil {
		response.Unauthorized(w, "unknown user")
		return
	}

	token, err := auth.NewSessionToken(user.ID, user.Email, string(user.Role), h.auth.JWTSecret, h.auth.SessionTTL)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to sign session token", "error", err)
		response.InternalError(w, "Failed to create session")
		return
	}

	logger.InfoContext(r.Context(), "Session issued", "user_id", user.ID, "role", user.Role)
	response.WriteJSON(w, http.StatusCreated, sessionResponse{
		Token:     token,
		UserID:    user.ID,
		Role:      string(user.Role),
		ExpiresAt: time.Now().Add(h.auth.SessionTTL).UTC(),
	})
}

func rateLimit(perSecond float64) rate.Limit {
	if perSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}
