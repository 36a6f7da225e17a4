package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BidSubmittedEvent tells the wish owner a traveler made an offer.
type BidSubmittedEvent struct {
	BidID        uuid.UUID       `json:"bid_id"`
	WishID       uuid.UUID       `json:"wish_id"`
	WishOwnerID  uuid.UUID       `json:"wish_owner_id"`
	BidderID     uuid.UUID       `json:"bidder_id"`
	OfferPrice   decimal.Decimal `json:"offer_price"`
	DeliveryDate time.Time       `json:"delivery_date"`
}

// BidAcceptedEvent is emitted once per wish, when its owner accepts a bid and the
// remaining pending bids are rejected.
type BidAcceptedEvent struct {
	BidID          uuid.UUID   `json:"bid_id"`
	WishID         uuid.UUID   `json:"wish_id"`
	WishOwnerID    uuid.UUID   `json:"wish_owner_id"`
	BidderID       uuid.UUID   `json:"bidder_id"`
	RejectedBidIDs []uuid.UUID `json:"rejected_bid_ids"`
	RejectedCount  int64       `json:"rejected_count"`
	AcceptedAt     time.Time   `json:"accepted_at"`
}

// SignupOTPRequestedEvent asks the notification system to email a signup code.
// Code is only set on this event; it is never persisted anywhere else in plain text.
type SignupOTPRequestedEvent struct {
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Resend    bool      `json:"resend"`
}

// UserVerificationChangedEvent reports an admin identity review outcome.
type UserVerificationChangedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	ReviewedBy uuid.UUID `json:"reviewed_by"`
}

// WishDeletedEvent tells the bidders of a removed wish that it is gone.
type WishDeletedEvent struct {
	WishID    uuid.UUID `json:"wish_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Title     string    `json:"title"`
	DeletedAt time.Time `json:"deleted_at"`
}
