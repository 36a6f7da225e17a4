package controllers

import (
	"net/http"

	"github.com/angelmondragon/wishbridge-backend/api/responses"
	"github.com/angelmondragon/wishbridge-backend/api/validators"
	"github.com/angelmondragon/wishbridge-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/wishbridge-backend/pkg/errors"
	"github.com/angelmondragon/wishbridge-backend/pkg/logger"
)

const tokenHeader = "X-WB-Token"

// AuthLogin exchanges an email and password for a WishBridge session and
// returns the access token in the X-WB-Token header as well as the body.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// accounts are keyed by the lower-cased address captured at signup
		body.Email = validators.NormalizeEmail(body.Email)

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil && result.User != nil {
			logg.Info(logg.WithUserID(r.Context(), result.User.ID.String()), "user logged in")
		}
		w.Header().Set(tokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}
