package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/smartpetcare/feeder-backend/internal/apperr"
	"github.com/smartpetcare/feeder-backend/internal/auth"
)

type contextKey string

const claimsKey contextKey = "claims"

// authMiddleware rejects requests without a valid bearer token and stashes
// the claims in the request context
func (rt *Router) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, rt.logger, apperr.Auth("Missing or malformed authorization header"))
			return
		}

		claims, err := rt.jwt.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, rt.logger, apperr.Auth("Invalid or expired token"))
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// callerEmail returns the authenticated email, empty when unauthenticated
func callerEmail(r *http.Request) string {
	if claims, ok := r.Context().Value(claimsKey).(*auth.Claims); ok {
		return claims.Email
	}
	return ""
}
