// Package auth supplies the caller identity. Token issuance belongs to the
// external auth system; this service only verifies HS256 bearer tokens and
// exposes the user id to handlers via the request context.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/matchweek/matchweek/internal/api/respond"
)

type contextKey int

const userKey contextKey = 0

type claims struct {
	UserID int `json:"uid"`
	jwt.RegisteredClaims
}

// Middleware verifies the Authorization bearer token and stores the caller
// id in the request context. Requests without a valid token get 401.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
				return
			}

			tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(token *jwt.Token) (any, error) {
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
				return
			}

			cl, ok := tok.Claims.(*claims)
			if !ok || cl.UserID == 0 {
				respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid claims")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, cl.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated caller's id, or 0 when the request did
// not pass through Middleware.
func UserID(ctx context.Context) int {
	id, _ := ctx.Value(userKey).(int)
	return id
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
