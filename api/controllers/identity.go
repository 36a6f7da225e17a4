package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/wishbridge-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/wishbridge-backend/pkg/errors"
)

// requireUserID reads the caller set by the Auth middleware.
func requireUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return id, nil
}
