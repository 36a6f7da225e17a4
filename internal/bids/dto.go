package bids

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wishbridge-backend/internal/users"
	"github.com/angelmondragon/wishbridge-backend/pkg/db/models"
	"github.com/angelmondragon/wishbridge-backend/pkg/enums"
)

const maxMessageLen = 1000

// SubmitBidInput is a traveler's offer as decoded by the controller.
type SubmitBidInput struct {
	OfferPrice   decimal.Decimal
	Message      string
	DeliveryDate time.Time
}

// BidDTO is the API shape of a bid.
type BidDTO struct {
	ID           uuid.UUID       `json:"id"`
	WishID       uuid.UUID       `json:"wish_id"`
	BidderID     uuid.UUID       `json:"bidder_id"`
	OfferPrice   decimal.Decimal `json:"offer_price"`
	Message      string          `json:"message"`
	DeliveryDate time.Time       `json:"delivery_date"`
	Status       enums.BidStatus `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// WishBidDTO is a bid as the wish owner sees it.
type WishBidDTO struct {
	BidDTO
	Bidder users.PublicProfile `json:"bidder"`
}

// WishSummary is the slice of a wish shown next to the caller's own bids.
type WishSummary struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsFulfilled bool      `json:"is_fulfilled"`
}

// UserBidDTO is a bid as its bidder sees it.
type UserBidDTO struct {
	BidDTO
	Wish WishSummary `json:"wish"`
}

// AcceptResult reports the winning bid and how many siblings were rejected.
type AcceptResult struct {
	Bid           BidDTO    `json:"bid"`
	WishID        uuid.UUID `json:"wish_id"`
	RejectedCount int64     `json:"rejected_count"`
}

// bidWithBidder and bidWithWish are scan targets for the joined list queries.
type bidWithBidder struct {
	models.Bid     `gorm:"embedded"`
	BidderFullName *string `gorm:"column:bidder_full_name"`
}

type bidWithWish struct {
	models.Bid      `gorm:"embedded"`
	WishTitle       string `gorm:"column:wish_title"`
	WishDescription string `gorm:"column:wish_description"`
	WishIsFulfilled bool   `gorm:"column:wish_is_fulfilled"`
}

func FromModel(b *models.Bid) *BidDTO {
	if b == nil {
		return nil
	}
	return &BidDTO{
		ID:           b.ID,
		WishID:       b.WishID,
		BidderID:     b.BidderID,
		OfferPrice:   b.OfferPrice,
		Message:      b.Message,
		DeliveryDate: b.DeliveryDate,
		Status:       b.Status,
		CreatedAt:    b.CreatedAt,
	}
}

func (r bidWithBidder) toDTO() WishBidDTO {
	name := ""
	if r.BidderFullName != nil {
		name = *r.BidderFullName
	}
	return WishBidDTO{
		BidDTO: *FromModel(&r.Bid),
		Bidder: users.PublicProfile{ID: r.BidderID, FullName: name},
	}
}

func (r bidWithWish) toDTO() UserBidDTO {
	return UserBidDTO{
		BidDTO: *FromModel(&r.Bid),
		Wish: WishSummary{
			ID:          r.WishID,
			Title:       r.WishTitle,
			Description: r.WishDescription,
			IsFulfilled: r.WishIsFulfilled,
		},
	}
}
