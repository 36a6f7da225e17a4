package bids

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wishbridge-backend/internal/repo"
	"github.com/angelmondragon/wishbridge-backend/internal/wishes"
	"github.com/angelmondragon/wishbridge-backend/pkg/db"
	"github.com/angelmondragon/wishbridge-backend/pkg/db/models"
	"github.com/angelmondragon/wishbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wishbridge-backend/pkg/errors"
	"github.com/angelmondragon/wishbridge-backend/pkg/logger"
	"github.com/angelmondragon/wishbridge-backend/pkg/metrics"
	"github.com/angelmondragon/wishbridge-backend/pkg/outbox"
	"github.com/angelmondragon/wishbridge-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service runs the bid lifecycle: submit, review, accept.
type Service interface {
	SubmitBid(ctx context.Context, wishID, bidderID uuid.UUID, input SubmitBidInput) (*BidDTO, error)
	ListBidsForWish(ctx context.Context, wishID, requesterID uuid.UUID) ([]WishBidDTO, error)
	AcceptBid(ctx context.Context, bidID, requesterID uuid.UUID) (*AcceptResult, error)
	ListBidsForUser(ctx context.Context, bidderID uuid.UUID) ([]UserBidDTO, error)
}

// ServiceParams wires the bid service. Metrics and Logger are optional.
type ServiceParams struct {
	Bids    Repository
	Wishes  wishes.Repository
	Tx      txRunner
	Outbox  outboxPublisher
	Metrics *metrics.BidMetrics
	Logger  *logger.Logger
}

type service struct {
	bids    Repository
	wishes  wishes.Repository
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.BidMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Bids == nil {
		return nil, fmt.Errorf("bids repository required")
	}
	if params.Wishes == nil {
		return nil, fmt.Errorf("wishes repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		bids:    params.Bids,
		wishes:  params.Wishes,
		tx:      params.Tx,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     time.Now,
	}, nil
}

// SubmitBid records a pending offer. Checks run in a fixed order so each
// failure kind is reported before the ones after it: missing wish, own wish,
// fulfilled wish, duplicate bid, then invalid offer.
func (s *service) SubmitBid(ctx context.Context, wishID, bidderID uuid.UUID, input SubmitBidInput) (*BidDTO, error) {
	if bidderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var created *models.Bid
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		bidsRepo := s.bids.WithTx(tx)

		// shared lock: an accept on this wish waits for us, and we wait for it
		wish, err := s.wishes.WithTx(tx).FindByIDLocked(ctx, wishID, wishes.LockShare)
		if err != nil {
			return mapWishError(err)
		}
		if wish.CreatedBy == bidderID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "owner cannot bid on own wish")
		}
		if wish.IsFulfilled {
			s.metrics.IncConflict(metrics.ConflictWishFulfilled)
			return pkgerrors.New(pkgerrors.CodeConflict, "wish already fulfilled")
		}

		existing, err := bidsRepo.FindByWishAndBidder(ctx, wishID, bidderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing bid")
		}
		if existing != nil {
			s.metrics.IncConflict(metrics.ConflictDuplicateBid)
			return pkgerrors.New(pkgerrors.CodeConflict, "duplicate bid")
		}

		message, err := s.validateOffer(input)
		if err != nil {
			return err
		}

		bid, err := bidsRepo.Create(ctx, &models.Bid{
			ID:           uuid.New(),
			WishID:       wishID,
			BidderID:     bidderID,
			OfferPrice:   input.OfferPrice,
			Message:      message,
			DeliveryDate: input.DeliveryDate.UTC(),
			Status:       enums.BidStatusPending,
			CreatedAt:    s.now().UTC(),
		})
		if err != nil {
			if db.IsUniqueViolation(err, UniqueWishBidder) {
				s.metrics.IncConflict(metrics.ConflictDuplicateBid)
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "duplicate bid")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bid")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventBidSubmitted,
			AggregateType: enums.AggregateBid,
			AggregateID:   bid.ID,
			Actor:         &outbox.ActorRef{UserID: bidderID, Role: enums.SystemRoleUser.String()},
			Data: payloads.BidSubmittedEvent{
				BidID:        bid.ID,
				WishID:       wish.ID,
				WishOwnerID:  wish.CreatedBy,
				BidderID:     bidderID,
				OfferPrice:   bid.OfferPrice,
				DeliveryDate: bid.DeliveryDate,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit bid submitted")
		}
		created = bid
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncSubmitted()
	return FromModel(created), nil
}

func (s *service) ListBidsForWish(ctx context.Context, wishID, requesterID uuid.UUID) ([]WishBidDTO, error) {
	wish, err := s.wishes.FindByID(ctx, wishID)
	if err != nil {
		return nil, mapWishError(err)
	}
	if wish.CreatedBy != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the wish owner can view its bids")
	}

	rows, err := s.bids.ListByWish(ctx, wishID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bids for wish")
	}
	return rows, nil
}

// AcceptBid makes bidID the wish's winning bid and rejects its pending
// siblings in one transaction. Losing a concurrent accept surfaces as Conflict.
func (s *service) AcceptBid(ctx context.Context, bidID, requesterID uuid.UUID) (*AcceptResult, error) {
	if bidID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid id required")
	}

	var (
		accepted *models.Bid
		rejected int64
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		bidsRepo := s.bids.WithTx(tx)
		wishesRepo := s.wishes.WithTx(tx)

		bid, err := bidsRepo.FindByID(ctx, bidID)
		if err != nil {
			if repo.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "bid not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bid")
		}

		wish, err := wishesRepo.FindByIDLocked(ctx, bid.WishID, wishes.LockUpdate)
		if err != nil {
			return mapWishError(err)
		}
		if wish.CreatedBy != requesterID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the wish owner can accept bids")
		}
		if wish.IsFulfilled {
			s.metrics.IncConflict(metrics.ConflictWishFulfilled)
			return pkgerrors.New(pkgerrors.CodeConflict, "wish already fulfilled")
		}
		if bid.Status != enums.BidStatusPending {
			s.metrics.IncConflict(metrics.ConflictBidNotPending)
			return pkgerrors.New(pkgerrors.CodeConflict, "bid is not pending")
		}

		won, err := wishesRepo.MarkFulfilled(ctx, wish.ID, bid.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark wish fulfilled")
		}
		if !won {
			s.metrics.IncConflict(metrics.ConflictLostAcceptRace)
			return pkgerrors.New(pkgerrors.CodeConflict, "wish already fulfilled")
		}

		moved, err := bidsRepo.UpdateStatus(ctx, bid.ID, enums.BidStatusPending, enums.BidStatusAccepted)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept bid")
		}
		if !moved {
			s.metrics.IncConflict(metrics.ConflictBidNotPending)
			return pkgerrors.New(pkgerrors.CodeConflict, "bid is not pending")
		}

		siblingIDs, err := bidsRepo.ListIDsByWishAndStatus(ctx, wish.ID, bid.ID, enums.BidStatusPending)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending siblings")
		}
		count, err := bidsRepo.UpdateStatusForWishExcept(ctx, wish.ID, bid.ID, enums.BidStatusPending, enums.BidStatusRejected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject sibling bids")
		}

		acceptedAt := s.now().UTC()
		event := outbox.DomainEvent{
			EventType:     enums.EventBidAccepted,
			AggregateType: enums.AggregateWish,
			AggregateID:   wish.ID,
			Actor:         &outbox.ActorRef{UserID: requesterID, Role: enums.SystemRoleUser.String()},
			Data: payloads.BidAcceptedEvent{
				BidID:          bid.ID,
				WishID:         wish.ID,
				WishOwnerID:    wish.CreatedBy,
				BidderID:       bid.BidderID,
				RejectedBidIDs: siblingIDs,
				RejectedCount:  count,
				AcceptedAt:     acceptedAt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit bid accepted")
		}

		bid.Status = enums.BidStatusAccepted
		accepted = bid
		rejected = count
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveAccepted(rejected)
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"bid_id":         accepted.ID.String(),
			"wish_id":        accepted.WishID.String(),
			"rejected_count": rejected,
		})
		s.logg.Info(logCtx, "bid accepted")
	}
	return &AcceptResult{
		Bid:           *FromModel(accepted),
		WishID:        accepted.WishID,
		RejectedCount: rejected,
	}, nil
}

func (s *service) ListBidsForUser(ctx context.Context, bidderID uuid.UUID) ([]UserBidDTO, error) {
	if bidderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.bids.ListByBidder(ctx, bidderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bids for user")
	}
	return rows, nil
}

func (s *service) validateOffer(input SubmitBidInput) (string, error) {
	if !input.OfferPrice.IsPositive() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "offer price must be greater than zero")
	}
	if input.DeliveryDate.IsZero() || !input.DeliveryDate.After(s.now()) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "delivery date must be in the future")
	}
	message := strings.TrimSpace(input.Message)
	if len([]rune(message)) > maxMessageLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "message must be at most 1000 characters")
	}
	return message, nil
}

func mapWishError(err error) error {
	if repo.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wish not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wish")
}
