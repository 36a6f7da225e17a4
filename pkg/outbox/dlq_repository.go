package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/wishbridge-backend/pkg/db/models"
	"github.com/angelmondragon/wishbridge-backend/pkg/enums"
)

const (
	defaultDLQPageSize = 50
	maxDLQPageSize     = 200
)

// DLQRepository stores outbox rows the publisher gave up on. At most one
// dead letter exists per event.
type DLQRepository struct {
	db *gorm.DB
}

// DLQFilter narrows a dead-letter listing. A zero Reason lists every reason.
type DLQFilter struct {
	Reason enums.OutboxDLQErrorReason
	Limit  int
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// InsertTx records a dead letter inside the publisher's claim transaction.
// Re-inserting an event that is already dead-lettered is a no-op.
func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.FailedAt.IsZero() {
		entry.FailedAt = time.Now().UTC()
	}
	if entry.ErrorMessage != nil {
		msg := truncate(*entry.ErrorMessage, maxLastErrorLen)
		entry.ErrorMessage = &msg
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&entry).Error
}

// List returns the newest dead letters first.
func (r *DLQRepository) List(ctx context.Context, filter DLQFilter) ([]models.OutboxDLQ, error) {
	limit := filter.Limit
	switch {
	case limit <= 0:
		limit = defaultDLQPageSize
	case limit > maxDLQPageSize:
		limit = maxDLQPageSize
	}

	query := r.db.WithContext(ctx).Order("failed_at DESC").Limit(limit)
	if filter.Reason != "" {
		query = query.Where("error_reason = ?", filter.Reason)
	}

	var rows []models.OutboxDLQ
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
