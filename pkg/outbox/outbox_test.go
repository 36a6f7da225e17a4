package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/wishbridge-backend/pkg/db/models"
	"github.com/angelmondragon/wishbridge-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE outbox_events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at DATETIME,
			published_at DATETIME,
			attempt_count INTEGER NOT NULL DEFAULT 0,
			last_error TEXT
		)`,
		`CREATE TABLE outbox_dlq (
			id TEXT PRIMARY KEY,
			event_id TEXT NOT NULL UNIQUE,
			event_type TEXT NOT NULL,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			error_reason TEXT NOT NULL,
			error_message TEXT,
			attempt_count INTEGER NOT NULL DEFAULT 0,
			failed_at DATETIME,
			created_at DATETIME
		)`,
	} {
		require.NoError(t, conn.Exec(ddl).Error)
	}
	return conn
}

type sample struct {
	Note string `json:"note"`
}

func TestEmitWritesEnvelope(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	fixed := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	aggregateID := uuid.New()
	actor := &ActorRef{UserID: uuid.New(), Role: "user"}
	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventBidSubmitted,
			AggregateType: enums.AggregateBid,
			AggregateID:   aggregateID,
			Actor:         actor,
			Data:          sample{Note: "hello"},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.NotEqual(t, uuid.Nil, rows[0].ID)
	assert.Equal(t, aggregateID, rows[0].AggregateID)

	var env PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &env))
	assert.Equal(t, 1, env.Version)
	assert.True(t, env.OccurredAt.Equal(fixed))
	require.NotNil(t, env.Actor)
	assert.Equal(t, actor.UserID, env.Actor.UserID)
	assert.JSONEq(t, `{"note":"hello"}`, string(env.Data))
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(NewRepository(conn), nil)

	boom := errors.New("boom")
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventBidAccepted,
			AggregateType: enums.AggregateWish,
			AggregateID:   uuid.New(),
			Data:          sample{},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := NewRepository(conn).CountPending(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEmitValidatesEvent(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(NewRepository(conn), nil)
	ctx := context.Background()

	assert.Error(t, svc.Emit(ctx, nil, DomainEvent{}))
	assert.Error(t, svc.Emit(ctx, conn, DomainEvent{EventType: "nope", AggregateType: enums.AggregateBid, AggregateID: uuid.New()}))
	assert.Error(t, svc.Emit(ctx, conn, DomainEvent{EventType: enums.EventBidSubmitted, AggregateType: enums.AggregateBid}))
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	base := time.Now().UTC().Add(-time.Minute)
	ids := make([]uuid.UUID, 3)
	for i := range ids {
		ids[i] = uuid.New()
		require.NoError(t, repo.Insert(conn, models.OutboxEvent{
			ID:            ids[i],
			EventType:     enums.EventBidSubmitted,
			AggregateType: enums.AggregateBid,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
		}))
	}

	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ids[0], rows[0].ID, "oldest first")

	require.NoError(t, repo.MarkPublishedTx(conn, ids[0]))
	require.NoError(t, repo.MarkFailedTx(conn, ids[1], errors.New("unavailable")))
	require.NoError(t, repo.MarkTerminalTx(conn, ids[2], errors.New("bad payload"), 3))

	rows, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ids[1], rows[0].ID)
	assert.Equal(t, 1, rows[0].AttemptCount)
	require.NotNil(t, rows[0].LastError)
	assert.Equal(t, "unavailable", *rows[0].LastError)
}

func TestDLQRepositoryInsertIsOncePerEvent(t *testing.T) {
	conn := openTestDB(t)
	dlq := NewDLQRepository(conn)
	eventID := uuid.New()

	long := strings.Repeat("x", 2000)
	entry := models.OutboxDLQ{
		EventID:       eventID,
		EventType:     enums.EventBidAccepted,
		AggregateType: enums.AggregateWish,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonNonRetryable,
		ErrorMessage:  &long,
	}
	require.NoError(t, dlq.InsertTx(conn, entry))
	require.NoError(t, dlq.InsertTx(conn, entry))

	rows, err := dlq.List(context.Background(), DLQFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, eventID, rows[0].EventID)
	require.NotNil(t, rows[0].ErrorMessage)
	assert.Len(t, *rows[0].ErrorMessage, maxLastErrorLen)

	assert.Error(t, dlq.InsertTx(nil, entry))
}

func TestDLQRepositoryListFiltersAndOrders(t *testing.T) {
	conn := openTestDB(t)
	dlq := NewDLQRepository(conn)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, reason := range []enums.OutboxDLQErrorReason{
		enums.OutboxDLQReasonMaxAttempts,
		enums.OutboxDLQReasonUnresolvable,
		enums.OutboxDLQReasonMaxAttempts,
	} {
		require.NoError(t, dlq.InsertTx(conn, models.OutboxDLQ{
			EventID:       uuid.New(),
			EventType:     enums.EventBidSubmitted,
			AggregateType: enums.AggregateBid,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
			ErrorReason:   reason,
			FailedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	rows, err := dlq.List(context.Background(), DLQFilter{Reason: enums.OutboxDLQReasonMaxAttempts})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].FailedAt.After(rows[1].FailedAt))

	rows, err = dlq.List(context.Background(), DLQFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, rows[0].ErrorReason)
}
