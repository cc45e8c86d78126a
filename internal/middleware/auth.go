package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/calder/choreboard/internal/auth"
	"github.com/calder/choreboard/internal/store"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "choreboard_session"

// RequireAuth validates the session cookie and populates AuthContext. A valid
// session without a household is allowed through with Role unset; handlers
// that need household scope check for it themselves.
func RequireAuth(sessionStore *store.SessionStore, householdStore *store.HouseholdStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				UserID:      sess.UserID,
				HouseholdID: sess.HouseholdID,
				SessionID:   sess.ID,
			}

			if sess.HouseholdID != 0 {
				member, err := householdStore.GetMember(sess.HouseholdID, sess.UserID)
				if err != nil || member == nil {
					unauthorized(w)
					return
				}
				ac.Role = member.Role
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireHousehold rejects authenticated users who have not joined a
// household yet.
func RequireHousehold(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.HouseholdID(r.Context()) == 0 {
			writeError(w, http.StatusForbidden, "Join a household first")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin checks that the authenticated user has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "Authentication required")
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
