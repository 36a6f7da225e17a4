package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wish is a request to source a product. Fulfillment fields are written once,
// by bid acceptance.
type Wish struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CreatedBy        uuid.UUID       `gorm:"column:created_by;type:uuid;not null"`
	Title            string          `gorm:"column:title;not null"`
	Description      string          `gorm:"column:description;not null"`
	BasePrice        decimal.Decimal `gorm:"column:base_price;type:numeric(12,2);not null"`
	DeliveryDeadline time.Time       `gorm:"column:delivery_deadline;not null"`
	ProductLink      *string         `gorm:"column:product_link"`
	Images           []string        `gorm:"column:images;type:jsonb;serializer:json"`
	LocationCountry  string          `gorm:"column:location_country;not null"`
	LocationCity     string          `gorm:"column:location_city;not null"`
	IsFulfilled      bool            `gorm:"column:is_fulfilled;not null;default:false"`
	AcceptedBidID    *uuid.UUID      `gorm:"column:accepted_bid_id;type:uuid"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
