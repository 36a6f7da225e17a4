package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wishbridge-backend/api/responses"
	"github.com/angelmondragon/wishbridge-backend/api/validators"
	"github.com/angelmondragon/wishbridge-backend/internal/bids"
	"github.com/angelmondragon/wishbridge-backend/pkg/logger"
)

// submitBidRequest only checks shape. Value rules run in the service after the
// wish lookup so a missing wish still reports 404 before a bad price reports 400.
// The web client posts camelCase keys; offerPrice may be a JSON number or string.
type submitBidRequest struct {
	OfferPrice   *decimal.Decimal `json:"offerPrice"`
	Message      *string          `json:"message"`
	DeliveryDate *time.Time       `json:"deliveryDate"`
}

func (r submitBidRequest) toInput() bids.SubmitBidInput {
	var input bids.SubmitBidInput
	if r.OfferPrice != nil {
		input.OfferPrice = *r.OfferPrice
	}
	if r.Message != nil {
		input.Message = *r.Message
	}
	if r.DeliveryDate != nil {
		input.DeliveryDate = *r.DeliveryDate
	}
	return input
}

// BidSubmit places the caller's bid on a wish.
func BidSubmit(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body submitBidRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bid, err := svc.SubmitBid(r.Context(), wishID, userID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, bid)
	}
}

// BidsForWish lists the bids on a wish for its owner.
func BidsForWish(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
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

		list, err := svc.ListBidsForWish(r.Context(), wishID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// BidAccept fulfils the wish with the given bid and rejects the rest. The
// response carries only the accepted bid.
func BidAccept(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bidID, err := validators.ParseUUIDParam(r, "bidId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AcceptBid(r.Context(), bidID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result.Bid)
	}
}

func BidsForUser(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListBidsForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
