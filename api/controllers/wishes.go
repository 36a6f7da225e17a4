package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wishbridge-backend/api/responses"
	"github.com/angelmondragon/wishbridge-backend/api/validators"
	"github.com/angelmondragon/wishbridge-backend/internal/wishes"
	"github.com/angelmondragon/wishbridge-backend/pkg/logger"
	"github.com/angelmondragon/wishbridge-backend/pkg/pagination"
	"github.com/angelmondragon/wishbridge-backend/pkg/types"
)

type createWishRequest struct {
	Title            string          `json:"title" validate:"required,max=100"`
	Description      string          `json:"description" validate:"required,max=1000"`
	BasePrice        decimal.Decimal `json:"base_price" validate:"required,decimal_gt0"`
	DeliveryDeadline time.Time       `json:"delivery_deadline" validate:"required,future"`
	ProductLink      *string         `json:"product_link" validate:"omitempty,url"`
	Images           []string        `json:"images" validate:"omitempty,max=5,dive,url"`
	Location         types.Location  `json:"location"`
}

func (r createWishRequest) toInput() wishes.CreateWishInput {
	return wishes.CreateWishInput{
		Title:            r.Title,
		Description:      r.Description,
		BasePrice:        r.BasePrice,
		DeliveryDeadline: r.DeliveryDeadline,
		ProductLink:      r.ProductLink,
		Images:           r.Images,
		Location:         r.Location,
	}
}

type updateWishRequest struct {
	Title            *string          `json:"title" validate:"omitempty,max=100"`
	Description      *string          `json:"description" validate:"omitempty,max=1000"`
	BasePrice        *decimal.Decimal `json:"base_price" validate:"omitempty,decimal_gt0"`
	DeliveryDeadline *time.Time       `json:"delivery_deadline" validate:"omitempty,future"`
	ProductLink      *string          `json:"product_link" validate:"omitempty,url"`
	Images           []string         `json:"images" validate:"omitempty,max=5,dive,url"`
	Location         *types.Location  `json:"location"`
}

func (r updateWishRequest) toInput() wishes.UpdateWishInput {
	return wishes.UpdateWishInput{
		Title:            r.Title,
		Description:      r.Description,
		BasePrice:        r.BasePrice,
		DeliveryDeadline: r.DeliveryDeadline,
		ProductLink:      r.ProductLink,
		Images:           r.Images,
		Location:         r.Location,
	}
}

// WishesList serves the public feed: ?limit=&cursor=&open_only=.
func WishesList(svc wishes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		openOnly, err := validators.ParseQueryBool(r, "open_only", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListWishes(r.Context(), wishes.ListParams{
			Params: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
			OpenOnly: openOnly,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func WishGet(svc wishes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wishID, err := validators.ParseUUIDParam(r, "wishId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		wish, err := svc.GetWish(r.Context(), wishID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wish)
	}
}

func WishesMine(svc wishes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListMyWishes(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func WishCreate(svc wishes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createWishRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wish, err := svc.CreateWish(r.Context(), userID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, wish)
	}
}

func WishUpdate(svc wishes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		wishID, err := validators.ParseUUIDParam(r, "wishId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateWishRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wish, err := svc.UpdateWish(r.Context(), wishID, userID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wish)
	}
}

func WishDelete(svc wishes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		wishID, err := validators.ParseUUIDParam(r, "wishId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteWish(r.Context(), wishID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"id": wishID.String(), "status": "deleted"})
	}
}
