package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/wishbridge-backend/internal/users"
	"github.com/angelmondragon/wishbridge-backend/pkg/db"
	"github.com/angelmondragon/wishbridge-backend/pkg/db/models"
	"github.com/angelmondragon/wishbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wishbridge-backend/pkg/errors"
	"github.com/angelmondragon/wishbridge-backend/pkg/outbox"
	"github.com/angelmondragon/wishbridge-backend/pkg/outbox/payloads"
)

func setupAdminTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			full_name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			phone TEXT,
			age INTEGER,
			cnic_number TEXT NOT NULL UNIQUE,
			cnic_front_key TEXT,
			cnic_back_key TEXT,
			country TEXT NOT NULL DEFAULT 'Pakistan',
			city TEXT,
			is_verified INTEGER NOT NULL DEFAULT 0,
			system_role TEXT,
			last_login_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
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

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := setupAdminTestDB(t)
	svc, err := NewService(testParams(conn))
	require.NoError(t, err)
	return svc, conn
}

func seedUser(t *testing.T, conn *gorm.DB, email, cnic string, createdAt time.Time) uuid.UUID {
	t.Helper()
	user, err := users.NewRepository(conn).Create(context.Background(), users.CreateUserDTO{
		FullName:     "Hira Siddiqui",
		Email:        email,
		PasswordHash: "hash",
		CNICNumber:   cnic,
	})
	require.NoError(t, err)
	require.NoError(t, conn.Exec("UPDATE users SET created_at = ? WHERE id = ?", createdAt, user.ID).Error)
	return user.ID
}

func TestListUsersNewestFirst(t *testing.T) {
	svc, conn := newTestService(t)
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	older := seedUser(t, conn, "old@example.com", "11111-1111111-1", base)
	newer := seedUser(t, conn, "new@example.com", "22222-2222222-2", base.Add(time.Hour))

	list, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer, list[0].ID)
	assert.Equal(t, older, list[1].ID)

	raw, err := json.Marshal(list[0])
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
}

func TestSetVerificationEmitsEvent(t *testing.T) {
	svc, conn := newTestService(t)
	userID := seedUser(t, conn, "hira@example.com", "33333-3333333-3", time.Now())
	reviewer := uuid.New()

	updated, err := svc.SetVerification(context.Background(), reviewer, userID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsVerified)

	var events []models.OutboxEvent
	require.NoError(t, conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventUserVerificationChanged, events[0].EventType)
	assert.Equal(t, userID, events[0].AggregateID)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	var data payloads.UserVerificationChangedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.True(t, data.IsVerified)
	assert.Equal(t, reviewer, data.ReviewedBy)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, "admin", envelope.Actor.Role)

	updated, err = svc.SetVerification(context.Background(), reviewer, userID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsVerified)
}

func TestSetVerificationMissingUser(t *testing.T) {
	svc, conn := newTestService(t)

	_, err := svc.SetVerification(context.Background(), uuid.New(), uuid.New(), true)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.SetVerification(context.Background(), uuid.New(), uuid.Nil, true)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func testParams(conn *gorm.DB) ServiceParams {
	return ServiceParams{
		Users:       users.NewRepository(conn),
		Tx:          db.NewFromConn(conn),
		Outbox:      outbox.NewService(outbox.NewRepository(conn), nil),
		DeadLetters: outbox.NewDLQRepository(conn),
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	conn := setupAdminTestDB(t)
	for name, mutate := range map[string]func(*ServiceParams){
		"users":        func(p *ServiceParams) { p.Users = nil },
		"tx":           func(p *ServiceParams) { p.Tx = nil },
		"outbox":       func(p *ServiceParams) { p.Outbox = nil },
		"dead letters": func(p *ServiceParams) { p.DeadLetters = nil },
	} {
		params := testParams(conn)
		mutate(&params)
		_, err := NewService(params)
		assert.Error(t, err, name)
	}
}

func TestListDeadLetters(t *testing.T) {
	svc, conn := newTestService(t)
	dlq := outbox.NewDLQRepository(conn)
	msg := "topic not found"
	require.NoError(t, dlq.InsertTx(conn, models.OutboxDLQ{
		EventID:       uuid.New(),
		EventType:     enums.EventBidAccepted,
		AggregateType: enums.AggregateWish,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"event_type":"bid_accepted"}`),
		ErrorReason:   enums.OutboxDLQReasonNonRetryable,
		ErrorMessage:  &msg,
		AttemptCount:  1,
	}))

	all, err := svc.ListDeadLetters(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "bid_accepted", all[0].EventType)
	assert.Equal(t, "non_retryable", all[0].Reason)
	require.NotNil(t, all[0].Error)
	assert.Equal(t, msg, *all[0].Error)

	none, err := svc.ListDeadLetters(context.Background(), string(enums.OutboxDLQReasonMaxAttempts), 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.ListDeadLetters(context.Background(), "expired", 10)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
