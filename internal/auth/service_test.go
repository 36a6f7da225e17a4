package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgAuth "github.com/angelmondragon/wishbridge-backend/pkg/auth"
	"github.com/angelmondragon/wishbridge-backend/pkg/auth/session"
	"github.com/angelmondragon/wishbridge-backend/pkg/config"
	"github.com/angelmondragon/wishbridge-backend/pkg/db/models"
	"github.com/angelmondragon/wishbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wishbridge-backend/pkg/errors"
	"github.com/angelmondragon/wishbridge-backend/pkg/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testJWTConfig = config.JWTConfig{
	Secret:                 "secret",
	Issuer:                 "wishbridge",
	ExpirationMinutes:      30,
	RefreshTokenTTLMinutes: 600,
}

func TestServiceLoginIssuesTokens(t *testing.T) {
	password := "traveler-secret"
	user := &models.User{
		ID:           uuid.New(),
		FullName:     "Bilal Ahmed",
		Email:        "bilal@example.com",
		PasswordHash: mustHashPassword(t, password),
	}
	svc, sessions, repo := buildTestService(t, user)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " Bilal@Example.com ", Password: password})
	require.NoError(t, err)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, enums.SystemRoleUser, claims.Role)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	assert.Equal(t, claims.ID, sessions.generatedFor, "refresh session is keyed by the token jti")
	assert.Equal(t, "bilal@example.com", repo.lookedUp)
	require.NotNil(t, resp.User.LastLoginAt)
	assert.False(t, resp.User.IsVerified, "unverified accounts may still sign in")
}

func TestServiceLoginUpgradesWeakHash(t *testing.T) {
	password := "traveler-secret"
	user := &models.User{ID: uuid.New(), Email: "bilal@example.com", PasswordHash: mustHashPassword(t, password)}
	repo := &stubUserRepo{user: user}
	stronger := config.PasswordConfig{ArgonMemoryKB: 16, ArgonTime: 2, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: &stubSessionManager{refreshToken: "r"},
		JWTConfig:      testJWTConfig,
		PasswordConfig: stronger,
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	require.NoError(t, err)

	require.NotEmpty(t, repo.rehashed)
	assert.False(t, security.NeedsRehash(repo.rehashed, stronger))
	ok, err := security.VerifyPassword(password, repo.rehashed)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestServiceLoginKeepsCurrentHash(t *testing.T) {
	password := "traveler-secret"
	user := &models.User{ID: uuid.New(), Email: "bilal@example.com", PasswordHash: mustHashPassword(t, password)}
	svc, _, repo := buildTestService(t, user)

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	require.NoError(t, err)
	assert.Empty(t, repo.rehashed)
}

func TestServiceLoginAdminRole(t *testing.T) {
	password := "admin-secret"
	admin := "Admin"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "admin@example.com",
		PasswordHash: mustHashPassword(t, password),
		SystemRole:   &admin,
	}
	svc, _, _ := buildTestService(t, user)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	require.NoError(t, err)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.SystemRoleAdmin, claims.Role)
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "bilal@example.com",
		PasswordHash: mustHashPassword(t, "right-password"),
	}

	cases := []struct {
		name string
		repo *stubUserRepo
		req  LoginRequest
	}{
		{"wrong password", &stubUserRepo{user: user}, LoginRequest{Email: user.Email, Password: "wrong-password"}},
		{"unknown email", &stubUserRepo{err: gorm.ErrRecordNotFound}, LoginRequest{Email: "nobody@example.com", Password: "x"}},
		{"blank email", &stubUserRepo{user: user}, LoginRequest{Email: "  ", Password: "right-password"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := NewService(ServiceParams{UserRepo: tc.repo, SessionManager: &stubSessionManager{}, JWTConfig: testJWTConfig})
			require.NoError(t, err)

			_, err = svc.Login(context.Background(), tc.req)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
			assert.Equal(t, invalidCredentialsMessage, pkgerrors.As(err).Message())
		})
	}
}

func TestServiceLoginStorageFailure(t *testing.T) {
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{err: errors.New("connection refused")},
		SessionManager: &stubSessionManager{},
		JWTConfig:      testJWTConfig,
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "bilal@example.com", Password: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestServiceRefreshRotatesSession(t *testing.T) {
	userID := uuid.New()
	svc, sessions, _ := buildTestService(t, nil)
	sessions.rotated = session.Record{UserID: userID, Role: enums.SystemRoleUser}

	old, err := pkgAuth.MintAccessToken(testJWTConfig, time.Now().Add(-2*time.Hour), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.SystemRoleUser,
		JTI:    "old-jti",
	})
	require.NoError(t, err)

	pair, err := svc.Refresh(context.Background(), old, "refresh-token")
	require.NoError(t, err)

	assert.Equal(t, "old-jti", sessions.rotatedFrom, "an expired access token still identifies its session")
	assert.Equal(t, "rotated-refresh", pair.RefreshToken)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "new-jti", claims.ID)
	assert.Equal(t, userID, claims.UserID)
}

func TestServiceRefreshRejectsInvalidToken(t *testing.T) {
	svc, sessions, _ := buildTestService(t, nil)

	_, err := svc.Refresh(context.Background(), "not-a-jwt", "refresh-token")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	sessions.rotateErr = session.ErrInvalidRefreshToken
	token, err := pkgAuth.MintAccessToken(testJWTConfig, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New(), Role: enums.SystemRoleUser})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), token, "stolen")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestServiceLogoutRevokes(t *testing.T) {
	svc, sessions, _ := buildTestService(t, nil)

	require.NoError(t, svc.Logout(context.Background(), "jti-1"))
	assert.Equal(t, "jti-1", sessions.revoked)

	err := svc.Logout(context.Background(), "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	sessions.revokeErr = errors.New("redis down")
	err = svc.Logout(context.Background(), "jti-2")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{SessionManager: &stubSessionManager{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{UserRepo: &stubUserRepo{}})
	assert.Error(t, err)
}

func buildTestService(t *testing.T, user *models.User) (Service, *stubSessionManager, *stubUserRepo) {
	t.Helper()
	userRepo := &stubUserRepo{user: user}
	sessionMgr := &stubSessionManager{refreshToken: "refresh-token"}
	svc, err := NewService(ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionMgr,
		JWTConfig:      testJWTConfig,
	})
	require.NoError(t, err)
	return svc, sessionMgr, userRepo
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user     *models.User
	err      error
	lookedUp string
	rehashed string
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.lookedUp = email
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.user != nil && s.user.ID == id {
		s.user.LastLoginAt = &at
	}
	return nil
}

func (s *stubUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	s.rehashed = hash
	return nil
}

type stubSessionManager struct {
	refreshToken string
	generatedFor string

	rotated     session.Record
	rotatedFrom string
	rotateErr   error

	revoked   string
	revokeErr error
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string, userID uuid.UUID, role enums.SystemRole) (string, error) {
	s.generatedFor = accessID
	return s.refreshToken, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, session.Record, error) {
	if s.rotateErr != nil {
		return "", "", session.Record{}, s.rotateErr
	}
	s.rotatedFrom = oldAccessID
	return "new-jti", "rotated-refresh", s.rotated, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	s.revoked = accessID
	return nil
}
