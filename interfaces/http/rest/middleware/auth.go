package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"booklib-backend/pkg/auth"
	"booklib-backend/pkg/common"
)

// SessionAuth authenticates requests from the signed session cookie
// and injects the caller's user ID into the request context. Identity
// lives entirely in the cookie; nothing is looked up in process memory.
func SessionAuth(sessions *auth.SessionManager, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.CookieName)
			if err != nil {
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
				return
			}

			claims, err := sessions.Verify(cookie.Value)
			if err != nil {
				logger.Info("Rejected session cookie", zap.Error(err))
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired session")
				return
			}

			ctx := common.WithUserID(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
