package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/wishbridge-backend/internal/repo"
	"github.com/angelmondragon/wishbridge-backend/pkg/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE users (
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
);`
	require.NoError(t, conn.Exec(users).Error)
	return conn
}

func newUserDTO(email, cnic string) CreateUserDTO {
	return CreateUserDTO{
		FullName:     "Ayesha Khan",
		Email:        email,
		PasswordHash: "hash",
		CNICNumber:   cnic,
	}
}

func TestRepositoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(setupUsersTestDB(t))

	created, err := r.Create(ctx, newUserDTO(" Ayesha@Example.com ", "12345-1234567-1"))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "ayesha@example.com", created.Email)
	assert.Equal(t, "Pakistan", created.Country)
	assert.False(t, created.IsVerified)

	byEmail, err := r.FindByEmail(ctx, "ayesha@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := r.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "12345-1234567-1", byID.CNICNumber)

	_, err = r.FindByID(ctx, uuid.New())
	assert.True(t, repo.IsNotFound(err))
}

func TestRepositoryCreateKeepsPresetID(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(setupUsersTestDB(t))

	dto := newUserDTO("preset@example.com", "12345-1234567-2")
	dto.ID = uuid.New()
	created, err := r.Create(ctx, dto)
	require.NoError(t, err)
	assert.Equal(t, dto.ID, created.ID)
}

func TestRepositoryExists(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(setupUsersTestDB(t))

	_, err := r.Create(ctx, newUserDTO("a@example.com", "11111-1111111-1"))
	require.NoError(t, err)

	ok, err := r.ExistsByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.ExistsByEmail(ctx, "b@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.ExistsByCNIC(ctx, "11111-1111111-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRepositoryDuplicateEmailIsUniqueViolation(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(setupUsersTestDB(t))

	_, err := r.Create(ctx, newUserDTO("dup@example.com", "11111-1111111-1"))
	require.NoError(t, err)
	_, err = r.Create(ctx, newUserDTO("dup@example.com", "22222-2222222-2"))
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "ux_users_email"))
}

func TestRepositoryListNewestFirst(t *testing.T) {
	ctx := context.Background()
	conn := setupUsersTestDB(t)
	r := NewRepository(conn)

	older, err := r.Create(ctx, newUserDTO("old@example.com", "11111-1111111-1"))
	require.NoError(t, err)
	newer, err := r.Create(ctx, newUserDTO("new@example.com", "22222-2222222-2"))
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, conn.Exec("UPDATE users SET created_at = ? WHERE id = ?", base, older.ID).Error)
	require.NoError(t, conn.Exec("UPDATE users SET created_at = ? WHERE id = ?", base.Add(time.Hour), newer.ID).Error)

	rows, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ID, rows[0].ID)
	assert.Equal(t, older.ID, rows[1].ID)

	dtos := FromModels(rows)
	require.Len(t, dtos, 2)
	assert.Equal(t, "new@example.com", dtos[0].Email)
}

func TestRepositorySetVerification(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(setupUsersTestDB(t))

	user, err := r.Create(ctx, newUserDTO("v@example.com", "11111-1111111-1"))
	require.NoError(t, err)

	found, err := r.SetVerification(ctx, user.ID, true)
	require.NoError(t, err)
	assert.True(t, found)

	reloaded, err := r.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsVerified)

	found, err = r.SetVerification(ctx, uuid.New(), true)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRepositoryUpdateLastLoginInsideTx(t *testing.T) {
	ctx := context.Background()
	conn := setupUsersTestDB(t)
	r := NewRepository(conn)

	user, err := r.Create(ctx, newUserDTO("l@example.com", "11111-1111111-1"))
	require.NoError(t, err)

	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	err = conn.Transaction(func(tx *gorm.DB) error {
		return r.WithTx(tx).UpdateLastLogin(ctx, user.ID, at)
	})
	require.NoError(t, err)

	reloaded, err := r.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
	assert.True(t, at.Equal(*reloaded.LastLoginAt))
}

func TestRepositoryUpdatePasswordHash(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(setupUsersTestDB(t))

	user, err := r.Create(ctx, newUserDTO("p@example.com", "11111-1111111-1"))
	require.NoError(t, err)

	require.NoError(t, r.UpdatePasswordHash(ctx, user.ID, "$argon2id$new"))
	reloaded, err := r.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "$argon2id$new", reloaded.PasswordHash)
}

func TestFromModelOmitsPasswordHash(t *testing.T) {
	model := newUserDTO("x@example.com", "11111-1111111-1").ToModel()
	model.PasswordHash = "secret"
	dto := FromModel(model)
	require.NotNil(t, dto)
	assert.Equal(t, model.ID, dto.ID)
	assert.Nil(t, FromModel(nil))
}
