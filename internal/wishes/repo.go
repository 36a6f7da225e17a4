package wishes

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wishbridge-backend/internal/repo"
	"github.com/angelmondragon/wishbridge-backend/pkg/db/models"
	"github.com/angelmondragon/wishbridge-backend/pkg/enums"
	"github.com/angelmondragon/wishbridge-backend/pkg/pagination"
)

// Row lock strengths accepted by FindByIDLocked.
const (
	LockUpdate = "UPDATE"
	LockShare  = "SHARE"
)

// Repository defines persistence operations for wishes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, wish *models.Wish) (*models.Wish, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Wish, error)
	FindByIDLocked(ctx context.Context, id uuid.UUID, strength string) (*models.Wish, error)
	List(ctx context.Context, params ListParams) ([]models.Wish, string, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Wish, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	MarkFulfilled(ctx context.Context, id, acceptedBidID uuid.UUID) (bool, error)
	CountLiveBids(ctx context.Context, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	repo.Base
}

// NewRepository constructs a wishes repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, wish *models.Wish) (*models.Wish, error) {
	if wish == nil {
		return nil, errors.New("wish required")
	}
	if wish.ID == uuid.Nil {
		wish.ID = uuid.New()
	}
	if wish.Images == nil {
		wish.Images = []string{}
	}
	if err := r.DB(ctx).Create(wish).Error; err != nil {
		return nil, err
	}
	return wish, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Wish, error) {
	var wish models.Wish
	if err := r.DB(ctx).First(&wish, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &wish, nil
}

// FindByIDLocked loads the wish and holds a row lock until the surrounding
// transaction ends.
func (r *repository) FindByIDLocked(ctx context.Context, id uuid.UUID, strength string) (*models.Wish, error) {
	var wish models.Wish
	if err := r.Locked(ctx, strength).First(&wish, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &wish, nil
}

// List returns one page of wishes, newest first, and the cursor of the next page.
func (r *repository) List(ctx context.Context, params ListParams) ([]models.Wish, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.DB(ctx).Model(&models.Wish{})
	if params.OpenOnly {
		query = query.Where("is_fulfilled = ?", false)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Wish
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error; err != nil {
		return nil, "", err
	}

	rows, next := pagination.Trim(rows, params.Limit, func(w models.Wish) pagination.Cursor {
		return pagination.Cursor{CreatedAt: w.CreatedAt, ID: w.ID}
	})
	return rows, next, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Wish, error) {
	var rows []models.Wish
	if err := r.DB(ctx).
		Where("created_by = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.DB(ctx).Model(&models.Wish{}).Where("id = ?", id).Updates(updates).Error
}

// MarkFulfilled sets the accepted bid only if the wish is still open. It reports
// whether this call won.
func (r *repository) MarkFulfilled(ctx context.Context, id, acceptedBidID uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Wish{}).
		Where("id = ? AND is_fulfilled = ?", id, false).
		Updates(map[string]any{
			"is_fulfilled":    true,
			"accepted_bid_id": acceptedBidID,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountLiveBids counts pending and accepted bids on the wish.
func (r *repository) CountLiveBids(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Bid{}).
		Where("wish_id = ? AND status IN ?", id, []enums.BidStatus{enums.BidStatusPending, enums.BidStatusAccepted}).
		Count(&count).Error
	return count, err
}

// Delete removes the wish and whatever bids remain on it.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.DB(ctx)
	if err := db.Where("wish_id = ?", id).Delete(&models.Bid{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&models.Wish{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
