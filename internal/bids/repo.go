package bids

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wishbridge-backend/internal/repo"
	"github.com/angelmondragon/wishbridge-backend/pkg/db/models"
	"github.com/angelmondragon/wishbridge-backend/pkg/enums"
)

// UniqueWishBidder is the index enforcing one bid per traveler per wish.
const UniqueWishBidder = "ux_bids_wish_bidder"

// Repository defines persistence operations for bids.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, bid *models.Bid) (*models.Bid, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	FindByWishAndBidder(ctx context.Context, wishID, bidderID uuid.UUID) (*models.Bid, error)
	ListByWish(ctx context.Context, wishID uuid.UUID) ([]WishBidDTO, error)
	ListByBidder(ctx context.Context, bidderID uuid.UUID) ([]UserBidDTO, error)
	ListIDsByWishAndStatus(ctx context.Context, wishID, excludeID uuid.UUID, status enums.BidStatus) ([]uuid.UUID, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.BidStatus) (bool, error)
	UpdateStatusForWishExcept(ctx context.Context, wishID, excludeID uuid.UUID, from, to enums.BidStatus) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository constructs a bids repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

// Create inserts a bid. A second bid by the same bidder surfaces as a unique
// violation on UniqueWishBidder.
func (r *repository) Create(ctx context.Context, bid *models.Bid) (*models.Bid, error) {
	if bid == nil {
		return nil, errors.New("bid required")
	}
	if bid.ID == uuid.Nil {
		bid.ID = uuid.New()
	}
	if bid.Status == "" {
		bid.Status = enums.BidStatusPending
	}
	if err := r.DB(ctx).Create(bid).Error; err != nil {
		return nil, err
	}
	return bid, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	if err := r.DB(ctx).First(&bid, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &bid, nil
}

// FindByWishAndBidder returns nil, nil when the bidder has not bid on the wish.
func (r *repository) FindByWishAndBidder(ctx context.Context, wishID, bidderID uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := r.DB(ctx).Where("wish_id = ? AND bidder_id = ?", wishID, bidderID).First(&bid).Error
	if repo.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// ListByWish returns the wish's bids with each bidder's public profile, newest first.
func (r *repository) ListByWish(ctx context.Context, wishID uuid.UUID) ([]WishBidDTO, error) {
	var rows []bidWithBidder
	if err := r.DB(ctx).
		Table("bids").
		Select("bids.*, users.full_name AS bidder_full_name").
		Joins("LEFT JOIN users ON users.id = bids.bidder_id").
		Where("bids.wish_id = ?", wishID).
		Order("bids.created_at DESC").
		Order("bids.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]WishBidDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDTO())
	}
	return out, nil
}

// ListByBidder returns the bidder's bids with a summary of each wish, newest first.
func (r *repository) ListByBidder(ctx context.Context, bidderID uuid.UUID) ([]UserBidDTO, error) {
	var rows []bidWithWish
	if err := r.DB(ctx).
		Table("bids").
		Select("bids.*, wishes.title AS wish_title, wishes.description AS wish_description, wishes.is_fulfilled AS wish_is_fulfilled").
		Joins("JOIN wishes ON wishes.id = bids.wish_id").
		Where("bids.bidder_id = ?", bidderID).
		Order("bids.created_at DESC").
		Order("bids.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]UserBidDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDTO())
	}
	return out, nil
}

func (r *repository) ListIDsByWishAndStatus(ctx context.Context, wishID, excludeID uuid.UUID, status enums.BidStatus) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.DB(ctx).
		Model(&models.Bid{}).
		Where("wish_id = ? AND id <> ? AND status = ?", wishID, excludeID, status).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateStatus moves one bid from -> to. It reports false when the bid was not in from.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.BidStatus) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Bid{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateStatusForWishExcept moves every other bid of the wish from -> to and
// returns how many changed.
func (r *repository) UpdateStatusForWishExcept(ctx context.Context, wishID, excludeID uuid.UUID, from, to enums.BidStatus) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Bid{}).
		Where("wish_id = ? AND id <> ? AND status = ?", wishID, excludeID, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}
