package controllers

import (
	"net/http"

	"github.com/movakid/shop-backend/api/responses"
	"github.com/movakid/shop-backend/api/validators"
	"github.com/movakid/shop-backend/internal/auth"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
)

// AdminLogin exchanges back-office credentials for an access token.
func AdminLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
