package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wishbridge-backend/internal/users"
	"github.com/angelmondragon/wishbridge-backend/pkg/db/models"
	"github.com/angelmondragon/wishbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wishbridge-backend/pkg/errors"
	"github.com/angelmondragon/wishbridge-backend/pkg/logger"
	"github.com/angelmondragon/wishbridge-backend/pkg/outbox"
	"github.com/angelmondragon/wishbridge-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type deadLetterLister interface {
	List(ctx context.Context, filter outbox.DLQFilter) ([]models.OutboxDLQ, error)
}

// Service is the back-office surface: identity review and outbox dead letters.
type Service interface {
	ListUsers(ctx context.Context) ([]users.UserDTO, error)
	SetVerification(ctx context.Context, reviewerID, userID uuid.UUID, verified bool) (*users.UserDTO, error)
	ListDeadLetters(ctx context.Context, reason string, limit int) ([]DeadLetterDTO, error)
}

// DeadLetterDTO is an outbox event the publisher stopped retrying.
type DeadLetterDTO struct {
	ID            uuid.UUID       `json:"id"`
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	Reason        string          `json:"reason"`
	Error         *string         `json:"error,omitempty"`
	Attempts      int             `json:"attempts"`
	Payload       json.RawMessage `json:"payload"`
	FailedAt      time.Time       `json:"failed_at"`
}

type ServiceParams struct {
	Users       *users.Repository
	Tx          txRunner
	Outbox      outboxPublisher
	DeadLetters deadLetterLister
	Logger      *logger.Logger
}

type service struct {
	users       *users.Repository
	tx          txRunner
	outbox      outboxPublisher
	deadLetters deadLetterLister
	logg        *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Users == nil:
		return nil, fmt.Errorf("users repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case params.DeadLetters == nil:
		return nil, fmt.Errorf("dead letter repository required")
	}
	return &service{
		users:       params.Users,
		tx:          params.Tx,
		outbox:      params.Outbox,
		deadLetters: params.DeadLetters,
		logg:        params.Logger,
	}, nil
}

func (s *service) ListUsers(ctx context.Context) ([]users.UserDTO, error) {
	rows, err := s.users.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return users.FromModels(rows), nil
}

// SetVerification records the review outcome and queues the notification in the same transaction.
func (s *service) SetVerification(ctx context.Context, reviewerID, userID uuid.UUID, verified bool) (*users.UserDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid user id")
	}

	var updated *users.UserDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		found, err := repo.SetVerification(ctx, userID, verified)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update verification")
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}

		user, err := repo.FindByID(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload user")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUserVerificationChanged,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Actor:         &outbox.ActorRef{UserID: reviewerID, Role: string(enums.SystemRoleAdmin)},
			Data: payloads.UserVerificationChangedEvent{
				UserID:     user.ID,
				Email:      user.Email,
				IsVerified: user.IsVerified,
				ReviewedBy: reviewerID,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit verification event")
		}

		updated = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":     userID.String(),
			"is_verified": verified,
			"reviewed_by": reviewerID.String(),
		})
		s.logg.Info(logCtx, "user verification changed")
	}
	return updated, nil
}

func (s *service) ListDeadLetters(ctx context.Context, reason string, limit int) ([]DeadLetterDTO, error) {
	filter := outbox.DLQFilter{Limit: limit}
	if reason != "" {
		filter.Reason = enums.OutboxDLQErrorReason(reason)
		if !filter.Reason.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown dead letter reason").
				WithDetails(map[string]any{"reason": reason})
		}
	}

	rows, err := s.deadLetters.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list dead letters")
	}
	out := make([]DeadLetterDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, DeadLetterDTO{
			ID:            row.ID,
			EventID:       row.EventID,
			EventType:     string(row.EventType),
			AggregateType: string(row.AggregateType),
			AggregateID:   row.AggregateID,
			Reason:        string(row.ErrorReason),
			Error:         row.ErrorMessage,
			Attempts:      row.AttemptCount,
			Payload:       row.Payload,
			FailedAt:      row.FailedAt,
		})
	}
	return out, nil
}
