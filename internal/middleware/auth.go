package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"canteen-be/internal/user"
	"canteen-be/internal/utils"
)

// UserLoader resolves the subject of a verified token to a live user
// record. Deactivated or deleted accounts fail the lookup.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// RequireAuth verifies the bearer token and loads the user's identity
// into the request context. Requests without a valid token are
// rejected; there are no optional-auth routes.
func RequireAuth(tokens *user.TokenManager, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			u, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := utils.SetUserContext(r.Context(), u.ID, u.Name, u.Email, u.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates staff-only routes. Must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !utils.IsAdmin(r.Context()) {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   msg,
	})
}
