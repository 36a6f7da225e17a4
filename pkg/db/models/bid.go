package models

import (
	"time"

	"github.com/angelmondragon/wishbridge-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid is a traveler's offer to fulfil a wish. (wish_id, bidder_id) is unique.
type Bid struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	WishID       uuid.UUID       `gorm:"column:wish_id;type:uuid;not null"`
	BidderID     uuid.UUID       `gorm:"column:bidder_id;type:uuid;not null"`
	OfferPrice   decimal.Decimal `gorm:"column:offer_price;type:numeric(12,2);not null"`
	Message      string          `gorm:"column:message;not null;default:''"`
	DeliveryDate time.Time       `gorm:"column:delivery_date;not null"`
	Status       enums.BidStatus `gorm:"column:status;type:bid_status;not null;default:pending"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
