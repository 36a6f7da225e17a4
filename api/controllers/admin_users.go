package controllers

import (
	"net/http"
	"strconv"

	"github.com/angelmondragon/wishbridge-backend/api/responses"
	"github.com/angelmondragon/wishbridge-backend/api/validators"
	"github.com/angelmondragon/wishbridge-backend/internal/admin"
	"github.com/angelmondragon/wishbridge-backend/pkg/errors"
	"github.com/angelmondragon/wishbridge-backend/pkg/logger"
)

type verificationRequest struct {
	IsVerified *bool `json:"is_verified" validate:"required"`
}

func AdminUsersList(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListUsers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminUserSetVerification records the identity review outcome for a user.
func AdminUserSetVerification(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reviewerID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body verificationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.SetVerification(r.Context(), reviewerID, userID, *body.IsVerified)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// AdminDeadLettersList lists outbox events the publisher gave up on, newest first.
// Query: reason (max_attempts, non_retryable, unresolvable) and limit.
func AdminDeadLettersList(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		limit := 0
		if raw := query.Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeValidation, "limit must be a positive integer"))
				return
			}
			limit = parsed
		}

		letters, err := svc.ListDeadLetters(r.Context(), query.Get("reason"), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, letters)
	}
}
