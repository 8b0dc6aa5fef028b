package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/diagnosis/pilgrim-quotes/internal/http/response"
	"github.com/diagnosis/pilgrim-quotes/pkg/auth"
	"github.com/diagnosis/pilgrim-quotes/pkg/logger"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

// RequireJWT rejects requests without a valid bearer session token and stores the claims
// on the request context. The subject and role are also added to the log context.
func RequireJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "invalid authorization header")
				return
			}
			raw := strings.TrimPrefix(authz, "Bearer ")
			claims, err := auth.Parse(raw, secret)
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.WriteError(w, http.StatusUnauthorized, "session expired", response.CodeExpiredToken)
				return
			}
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "invalid authorization token", response.CodeInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), CtxClaims, claims)
			ctx = context.WithValue(ctx, logger.UserIDKey, claims.Sub)
			ctx = context.WithValue(ctx, logger.RoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Claims(r *http.Request) *auth.Claims {
	v, _ := r.Context().Value(CtxClaims).(*auth.Claims)
	return v
}
