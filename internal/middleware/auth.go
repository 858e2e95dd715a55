package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/quizprep/backend/internal/auth"
	"github.com/quizprep/backend/internal/models"
)

// Auth validates the Bearer token, confirms the account still exists and is
// active, and rejects tokens issued before the user's last password change.
// On success the request context carries "user_id" (int64) and "user_role"
// (string).
func Auth(store *auth.Store) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}

			userID, issuedAt, err := auth.ParseToken(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			user, err := store.UserByID(userID, false)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "The user belonging to this token no longer exists")
				return
			}

			if user.PasswordChangedAt != nil && issuedAt.Before(*user.PasswordChangedAt) {
				writeError(w, http.StatusUnauthorized, "Password was changed recently. Please log in again")
				return
			}

			ctx := context.WithValue(r.Context(), "user_id", user.ID)
			ctx = context.WithValue(ctx, "user_role", string(user.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates a subrouter behind the admin role. It must run after
// Auth, which puts the role on the context.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := r.Context().Value("user_role").(string)
		if role != string(models.RoleAdmin) {
			writeError(w, http.StatusForbidden, "You do not have permission to perform this action")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg})
}
