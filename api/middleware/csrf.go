package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/movakid/shop-backend/api/responses"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
)

const csrfHeader = "X-CSRF-Token"

// RequireCSRF rejects mutating requests whose X-CSRF-Token header does
// not match the session's token. Safe methods pass through.
func RequireCSRF(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			expected := CSRFTokenFromContext(r.Context())
			provided := r.Header.Get(csrfHeader)
			if expected == "" || provided == "" ||
				subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "invalid csrf token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
