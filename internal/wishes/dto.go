package wishes

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wishbridge-backend/pkg/db/models"
	"github.com/angelmondragon/wishbridge-backend/pkg/pagination"
	"github.com/angelmondragon/wishbridge-backend/pkg/types"
)

const MaxImages = 5

// CreateWishInput carries a validated wish body from the controller.
type CreateWishInput struct {
	Title            string
	Description      string
	BasePrice        decimal.Decimal
	DeliveryDeadline time.Time
	ProductLink      *string
	Images           []string
	Location         types.Location
}

// UpdateWishInput holds optional changes; nil fields are left untouched.
type UpdateWishInput struct {
	Title            *string
	Description      *string
	BasePrice        *decimal.Decimal
	DeliveryDeadline *time.Time
	ProductLink      *string
	Images           []string
	Location         *types.Location
}

// ListParams filters the public wish feed.
type ListParams struct {
	pagination.Params
	OpenOnly bool
}

// WishDTO is the API shape of a wish.
type WishDTO struct {
	ID               uuid.UUID       `json:"id"`
	CreatedBy        uuid.UUID       `json:"created_by"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	BasePrice        decimal.Decimal `json:"base_price"`
	DeliveryDeadline time.Time       `json:"delivery_deadline"`
	ProductLink      *string         `json:"product_link,omitempty"`
	Images           []string        `json:"images"`
	Location         types.Location  `json:"location"`
	IsFulfilled      bool            `json:"is_fulfilled"`
	AcceptedBidID    *uuid.UUID      `json:"accepted_bid_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func FromModel(w *models.Wish) *WishDTO {
	if w == nil {
		return nil
	}
	images := append([]string{}, w.Images...)
	return &WishDTO{
		ID:               w.ID,
		CreatedBy:        w.CreatedBy,
		Title:            w.Title,
		Description:      w.Description,
		BasePrice:        w.BasePrice,
		DeliveryDeadline: w.DeliveryDeadline,
		ProductLink:      w.ProductLink,
		Images:           images,
		Location:         types.Location{Country: w.LocationCountry, City: w.LocationCity},
		IsFulfilled:      w.IsFulfilled,
		AcceptedBidID:    w.AcceptedBidID,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

func FromModels(rows []models.Wish) []WishDTO {
	out := make([]WishDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
