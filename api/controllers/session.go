package controllers

import (
	"net/http"

	"github.com/movakid/shop-backend/api/middleware"
	"github.com/movakid/shop-backend/api/responses"
	"github.com/movakid/shop-backend/internal/cart"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
)

type sessionResponse struct {
	CSRFToken string `json:"csrf_token"`
	CartCount int    `json:"cart_count"`
}

// SessionInfo hands the SPA its CSRF token and current cart size. The
// session cookie itself is set by the session middleware.
func SessionInfo(carts cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session missing"))
			return
		}

		current, err := carts.Load(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart"))
			return
		}

		responses.WriteSuccess(w, sessionResponse{
			CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
			CartCount: current.ItemCount(),
		})
	}
}
