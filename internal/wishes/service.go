package wishes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wishbridge-backend/internal/repo"
	"github.com/angelmondragon/wishbridge-backend/pkg/db/models"
	"github.com/angelmondragon/wishbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wishbridge-backend/pkg/errors"
	"github.com/angelmondragon/wishbridge-backend/pkg/outbox"
	"github.com/angelmondragon/wishbridge-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/wishbridge-backend/pkg/pagination"
	"github.com/angelmondragon/wishbridge-backend/pkg/types"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 1000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes wish CRUD. Fulfillment is owned by bid acceptance.
type Service interface {
	CreateWish(ctx context.Context, ownerID uuid.UUID, input CreateWishInput) (*WishDTO, error)
	ListWishes(ctx context.Context, params ListParams) (*types.Page[WishDTO], error)
	GetWish(ctx context.Context, id uuid.UUID) (*WishDTO, error)
	ListMyWishes(ctx context.Context, ownerID uuid.UUID) ([]WishDTO, error)
	UpdateWish(ctx context.Context, id, ownerID uuid.UUID, input UpdateWishInput) (*WishDTO, error)
	DeleteWish(ctx context.Context, id, ownerID uuid.UUID) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	now    func() time.Time
}

// NewService builds a wish service with the required dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishes repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: publisher, now: time.Now}, nil
}

func (s *service) CreateWish(ctx context.Context, ownerID uuid.UUID, input CreateWishInput) (*WishDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if err := validateText(title, description); err != nil {
		return nil, err
	}
	if !input.BasePrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must be greater than zero")
	}
	if !input.DeliveryDeadline.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery deadline must be in the future")
	}
	location, err := normalizeLocation(input.Location)
	if err != nil {
		return nil, err
	}
	link, err := normalizeLink(input.ProductLink)
	if err != nil {
		return nil, err
	}
	images, err := normalizeImages(input.Images)
	if err != nil {
		return nil, err
	}

	wish := &models.Wish{
		ID:               uuid.New(),
		CreatedBy:        ownerID,
		Title:            title,
		Description:      description,
		BasePrice:        input.BasePrice,
		DeliveryDeadline: input.DeliveryDeadline.UTC(),
		ProductLink:      link,
		Images:           images,
		LocationCountry:  location.Country,
		LocationCity:     location.City,
	}
	created, err := s.repo.Create(ctx, wish)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create wish")
	}
	return FromModel(created), nil
}

func (s *service) ListWishes(ctx context.Context, params ListParams) (*types.Page[WishDTO], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishes")
	}
	return &types.Page[WishDTO]{Items: FromModels(rows), NextCursor: next}, nil
}

func (s *service) GetWish(ctx context.Context, id uuid.UUID) (*WishDTO, error) {
	wish, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return FromModel(wish), nil
}

func (s *service) ListMyWishes(ctx context.Context, ownerID uuid.UUID) ([]WishDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list own wishes")
	}
	return FromModels(rows), nil
}

func (s *service) UpdateWish(ctx context.Context, id, ownerID uuid.UUID, input UpdateWishInput) (*WishDTO, error) {
	updates, err := s.buildUpdates(input)
	if err != nil {
		return nil, err
	}

	var updated *models.Wish
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wish, err := repo.FindByIDLocked(ctx, id, LockUpdate)
		if err != nil {
			return mapLoadError(err)
		}
		if wish.CreatedBy != ownerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the wish owner can edit it")
		}
		if wish.IsFulfilled {
			return pkgerrors.New(pkgerrors.CodeConflict, "fulfilled wish cannot be edited")
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update wish")
		}
		updated, err = repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload wish")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

// DeleteWish removes an owner's wish. Wishes with pending or accepted bids stay.
// Rejected bidders learn about the removal through the wish_deleted event.
func (s *service) DeleteWish(ctx context.Context, id, ownerID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wish, err := repo.FindByIDLocked(ctx, id, LockUpdate)
		if err != nil {
			return mapLoadError(err)
		}
		if wish.CreatedBy != ownerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the wish owner can delete it")
		}
		live, err := repo.CountLiveBids(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count live bids")
		}
		if live > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "wish has live bids")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete wish")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWishDeleted,
			AggregateType: enums.AggregateWish,
			AggregateID:   id,
			Actor:         &outbox.ActorRef{UserID: ownerID, Role: string(enums.SystemRoleUser)},
			Data: payloads.WishDeletedEvent{
				WishID:    id,
				OwnerID:   ownerID,
				Title:     wish.Title,
				DeletedAt: s.now().UTC(),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit wish deleted event")
		}
		return nil
	})
}

func (s *service) buildUpdates(input UpdateWishInput) (map[string]any, error) {
	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" || len([]rune(title)) > maxTitleLen {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title must be 1-100 characters")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" || len([]rune(description)) > maxDescriptionLen {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "description must be 1-1000 characters")
		}
		updates["description"] = description
	}
	if input.BasePrice != nil {
		if !input.BasePrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must be greater than zero")
		}
		updates["base_price"] = *input.BasePrice
	}
	if input.DeliveryDeadline != nil {
		if !input.DeliveryDeadline.After(s.now()) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery deadline must be in the future")
		}
		updates["delivery_deadline"] = input.DeliveryDeadline.UTC()
	}
	if input.ProductLink != nil {
		link, err := normalizeLink(input.ProductLink)
		if err != nil {
			return nil, err
		}
		updates["product_link"] = link
	}
	if input.Images != nil {
		images, err := normalizeImages(input.Images)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(images)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode images")
		}
		updates["images"] = string(encoded)
	}
	if input.Location != nil {
		location, err := normalizeLocation(*input.Location)
		if err != nil {
			return nil, err
		}
		updates["location_country"] = location.Country
		updates["location_city"] = location.City
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no changes supplied")
	}
	return updates, nil
}

func mapLoadError(err error) error {
	if repo.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wish not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wish")
}

func validateText(title, description string) error {
	if title == "" || len([]rune(title)) > maxTitleLen {
		return pkgerrors.New(pkgerrors.CodeValidation, "title must be 1-100 characters")
	}
	if description == "" || len([]rune(description)) > maxDescriptionLen {
		return pkgerrors.New(pkgerrors.CodeValidation, "description must be 1-1000 characters")
	}
	return nil
}

func normalizeLocation(loc types.Location) (types.Location, error) {
	out := types.Location{
		Country: strings.TrimSpace(loc.Country),
		City:    strings.TrimSpace(loc.City),
	}
	if out.Country == "" || out.City == "" {
		return types.Location{}, pkgerrors.New(pkgerrors.CodeValidation, "location country and city are required")
	}
	return out, nil
}

func normalizeLink(link *string) (*string, error) {
	if link == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*link)
	if trimmed == "" {
		return nil, nil
	}
	if !isHTTPURL(trimmed) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product link must be an http(s) URL")
	}
	return &trimmed, nil
}

func normalizeImages(images []string) ([]string, error) {
	if len(images) > MaxImages {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d images allowed", MaxImages))
	}
	out := make([]string, 0, len(images))
	for _, raw := range images {
		trimmed := strings.TrimSpace(raw)
		if !isHTTPURL(trimmed) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "image must be an http(s) URL")
		}
		out = append(out, trimmed)
	}
	return out, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
