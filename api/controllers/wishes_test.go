package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wishbridge-backend/internal/wishes"
	pkgerrors "github.com/angelmondragon/wishbridge-backend/pkg/errors"
	"github.com/angelmondragon/wishbridge-backend/pkg/types"
)

type stubWishService struct {
	wishes.Service

	listFn   func(ctx context.Context, params wishes.ListParams) (*types.Page[wishes.WishDTO], error)
	createFn func(ctx context.Context, ownerID uuid.UUID, input wishes.CreateWishInput) (*wishes.WishDTO, error)
	updateFn func(ctx context.Context, id, ownerID uuid.UUID, input wishes.UpdateWishInput) (*wishes.WishDTO, error)
	deleteFn func(ctx context.Context, id, ownerID uuid.UUID) error
}

func (s stubWishService) ListWishes(ctx context.Context, params wishes.ListParams) (*types.Page[wishes.WishDTO], error) {
	return s.listFn(ctx, params)
}

func (s stubWishService) CreateWish(ctx context.Context, ownerID uuid.UUID, input wishes.CreateWishInput) (*wishes.WishDTO, error) {
	return s.createFn(ctx, ownerID, input)
}

func (s stubWishService) UpdateWish(ctx context.Context, id, ownerID uuid.UUID, input wishes.UpdateWishInput) (*wishes.WishDTO, error) {
	return s.updateFn(ctx, id, ownerID, input)
}

func (s stubWishService) DeleteWish(ctx context.Context, id, ownerID uuid.UUID) error {
	return s.deleteFn(ctx, id, ownerID)
}

func TestWishesListParsesQuery(t *testing.T) {
	svc := stubWishService{
		listFn: func(ctx context.Context, params wishes.ListParams) (*types.Page[wishes.WishDTO], error) {
			assert.Equal(t, 10, params.Limit)
			assert.Equal(t, "abc", params.Cursor)
			assert.True(t, params.OpenOnly)
			return &types.Page[wishes.WishDTO]{Items: []wishes.WishDTO{}, NextCursor: "next"}, nil
		},
	}

	resp := httptest.NewRecorder()
	WishesList(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/?limit=10&cursor=abc&open_only=true", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var page types.Page[wishes.WishDTO]
	decodeData(t, resp, &page)
	assert.Equal(t, "next", page.NextCursor)
}

func TestWishesListRejectsBadQuery(t *testing.T) {
	for _, target := range []string{"/?limit=0", "/?limit=500", "/?open_only=maybe"} {
		resp := httptest.NewRecorder()
		WishesList(stubWishService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, resp.Code, target)
	}
}

func TestWishCreateValidatesBody(t *testing.T) {
	owner := uuid.New()
	svc := stubWishService{
		createFn: func(ctx context.Context, ownerID uuid.UUID, input wishes.CreateWishInput) (*wishes.WishDTO, error) {
			assert.Equal(t, owner, ownerID)
			assert.Equal(t, "Lahore", input.Location.City)
			return &wishes.WishDTO{ID: uuid.New(), CreatedBy: ownerID, Title: input.Title}, nil
		},
	}

	valid := `{"title":"Nintendo Switch","description":"OLED model, sealed","base_price":"320.00",
		"delivery_deadline":"2031-03-01T00:00:00Z","images":["https://img.example.com/a.png"],
		"location":{"country":"Pakistan","city":"Lahore"}}`
	resp := httptest.NewRecorder()
	WishCreate(svc, nil).ServeHTTP(resp, asUser(newJSONRequest(http.MethodPost, "/", valid), owner))
	require.Equal(t, http.StatusCreated, resp.Code)

	cases := map[string]string{
		"zero price":      `{"title":"x","description":"y","base_price":"0","delivery_deadline":"2031-03-01T00:00:00Z","location":{"country":"Pakistan","city":"Lahore"}}`,
		"past deadline":   `{"title":"x","description":"y","base_price":"5","delivery_deadline":"2001-03-01T00:00:00Z","location":{"country":"Pakistan","city":"Lahore"}}`,
		"no location":     `{"title":"x","description":"y","base_price":"5","delivery_deadline":"2031-03-01T00:00:00Z"}`,
		"too many images": `{"title":"x","description":"y","base_price":"5","delivery_deadline":"2031-03-01T00:00:00Z","images":["https://a.io/1","https://a.io/2","https://a.io/3","https://a.io/4","https://a.io/5","https://a.io/6"],"location":{"country":"Pakistan","city":"Lahore"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			WishCreate(svc, nil).ServeHTTP(resp, asUser(newJSONRequest(http.MethodPost, "/", body), owner))
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, "VALIDATION_ERROR", decodeError(t, resp).Code)
		})
	}
}

func TestWishUpdatePassesOnlySuppliedFields(t *testing.T) {
	wishID := uuid.New()
	svc := stubWishService{
		updateFn: func(ctx context.Context, id, ownerID uuid.UUID, input wishes.UpdateWishInput) (*wishes.WishDTO, error) {
			assert.Equal(t, wishID, id)
			require.NotNil(t, input.Title)
			assert.Equal(t, "New title", *input.Title)
			assert.Nil(t, input.BasePrice)
			assert.Nil(t, input.Location)
			return &wishes.WishDTO{ID: id, Title: *input.Title}, nil
		},
	}

	req := asUser(withParams(newJSONRequest(http.MethodPut, "/", `{"title":"New title"}`), map[string]string{"wishId": wishID.String()}), uuid.New())
	resp := httptest.NewRecorder()
	WishUpdate(svc, nil).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestWishDeleteLiveBidsConflict(t *testing.T) {
	svc := stubWishService{
		deleteFn: func(ctx context.Context, id, ownerID uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeConflict, "wish has live bids")
		},
	}

	req := asUser(withParams(newJSONRequest(http.MethodDelete, "/", ""), map[string]string{"wishId": uuid.NewString()}), uuid.New())
	resp := httptest.NewRecorder()
	WishDelete(svc, nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "wish has live bids", decodeError(t, resp).Message)
}
