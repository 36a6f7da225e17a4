package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/wishbridge-backend/pkg/config"
	"github.com/angelmondragon/wishbridge-backend/pkg/enums"
	redisclient "github.com/angelmondragon/wishbridge-backend/pkg/redis"
	"github.com/google/uuid"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// Record is what Redis keeps for each live session. Only a hash of the refresh token is stored.
type Record struct {
	UserID      uuid.UUID        `json:"user_id"`
	Role        enums.SystemRole `json:"role"`
	RefreshHash string           `json:"refresh_hash"`
	IssuedAt    time.Time        `json:"issued_at"`
}

type sessionStore interface {
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest any) error
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is the read-only surface used by the auth middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager issues, rotates and revokes refresh sessions keyed by the access token jti.
type Manager struct {
	store sessionStore
	ttl   time.Duration
	now   func() time.Time
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newManager(client, cfg)
}

func newManager(store sessionStore, cfg config.JWTConfig) (*Manager, error) {
	ttl := cfg.RefreshTokenTTL()
	if ttl <= cfg.AccessTokenTTL() {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, cfg.AccessTokenTTL())
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}, nil
}

// Generate creates a refresh token for accessID and stores its session record.
func (m *Manager) Generate(ctx context.Context, accessID string, userID uuid.UUID, role enums.SystemRole) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", fmt.Errorf("access id is required")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	rec := Record{
		UserID:      userID,
		Role:        role,
		RefreshHash: hashToken(token),
		IssuedAt:    m.now().UTC(),
	}
	if err := m.store.SetJSON(ctx, m.store.AccessSessionKey(accessID), rec, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate checks the refresh token against the old session, replaces the session and
// returns the new access id, refresh token and the session owner.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, Record, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return "", "", Record{}, ErrInvalidRefreshToken
	}

	key := m.store.AccessSessionKey(oldAccessID)
	var rec Record
	if err := m.store.GetJSON(ctx, key, &rec); err != nil {
		if errors.Is(err, redisclient.ErrNotFound) {
			return "", "", Record{}, ErrInvalidRefreshToken
		}
		return "", "", Record{}, err
	}
	if subtle.ConstantTimeCompare([]byte(rec.RefreshHash), []byte(hashToken(provided))) != 1 {
		return "", "", Record{}, ErrInvalidRefreshToken
	}

	newAccessID := NewAccessID()
	newToken, err := m.Generate(ctx, newAccessID, rec.UserID, rec.Role)
	if err != nil {
		return "", "", Record{}, err
	}
	if err := m.store.Del(ctx, key); err != nil {
		return "", "", Record{}, err
	}
	return newAccessID, newToken, rec, nil
}

// Revoke deletes the session tied to accessID.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

// HasSession reports whether accessID still has a live session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	var rec Record
	if err := m.store.GetJSON(ctx, m.store.AccessSessionKey(accessID), &rec); err != nil {
		if errors.Is(err, redisclient.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewAccessID produces the identifier used as JWT jti and session key.
func NewAccessID() string {
	return uuid.NewString()
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
