package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/wishbridge-backend/api/responses"
	pkgAuth "github.com/angelmondragon/wishbridge-backend/pkg/auth"
	"github.com/angelmondragon/wishbridge-backend/pkg/auth/session"
	"github.com/angelmondragon/wishbridge-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/wishbridge-backend/pkg/errors"
	"github.com/angelmondragon/wishbridge-backend/pkg/logger"
)

// Auth admits requests carrying a valid access token whose refresh session is
// still live. Logout revokes the session, so an unexpired token can still be refused.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authenticate(r.Context(), r.Header.Get("Authorization"), cfg, verifier)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := withIdentity(r.Context(), id)
			if logg != nil {
				ctx = logg.WithUserID(ctx, id.userID)
				ctx = logg.WithField(ctx, "actor_role", id.role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, header string, cfg config.JWTConfig, verifier session.AccessSessionChecker) (identity, error) {
	token, ok := pkgAuth.BearerToken(header)
	if !ok {
		return identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return identity{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	if verifier != nil {
		live, err := verifier.HasSession(ctx, claims.ID)
		if err != nil {
			return identity{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !live {
			return identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
		}
	}

	return identity{
		userID:    claims.UserID.String(),
		role:      string(claims.Role),
		sessionID: claims.ID,
	}, nil
}
