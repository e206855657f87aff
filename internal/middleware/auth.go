package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gestistock/gestistock/internal/utils"
)

type contextKey string

// UserContextKey carries the authenticated claims through the request context
const UserContextKey contextKey = "user"

// Claims is the authenticated identity extracted from the bearer token
type Claims struct {
	UserID uint
	Email  string
	Role   string
}

// Auth verifies the bearer JWT and stores the claims in the request context
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				// The websocket client cannot set headers; allow ?token=
				if t := r.URL.Query().Get("token"); t != "" {
					authHeader = "Bearer " + t
				}
			}
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			mapClaims, err := utils.ValidateToken(parts[1], secret)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			claims := &Claims{}
			if id, ok := mapClaims["id"].(float64); ok {
				claims.UserID = uint(id)
			}
			if email, ok := mapClaims["email"].(string); ok {
				claims.Email = email
			}
			if role, ok := mapClaims["role"].(string); ok {
				claims.Role = role
			}
			if claims.UserID == 0 {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the claims stored by Auth, if any
func UserFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	return claims, ok
}

// WithClaims injects claims into a context (used by handler tests)
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}
