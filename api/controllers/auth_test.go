package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wishbridge-backend/internal/auth"
	"github.com/angelmondragon/wishbridge-backend/internal/users"
	pkgerrors "github.com/angelmondragon/wishbridge-backend/pkg/errors"
	"github.com/angelmondragon/wishbridge-backend/pkg/logger"
)

type stubAuthService struct {
	auth.Service

	loginFn   func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error)
	refreshFn func(ctx context.Context, access, refresh string) (*auth.TokenPair, error)
	logoutFn  func(ctx context.Context, accessID string) error
}

func (s stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.loginFn(ctx, req)
}

func (s stubAuthService) Refresh(ctx context.Context, access, refresh string) (*auth.TokenPair, error) {
	return s.refreshFn(ctx, access, refresh)
}

func (s stubAuthService) Logout(ctx context.Context, accessID string) error {
	return s.logoutFn(ctx, accessID)
}

func TestAuthLoginSetsTokenHeader(t *testing.T) {
	svc := stubAuthService{
		loginFn: func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
			assert.Equal(t, "ayesha@example.com", req.Email)
			return &auth.LoginResponse{
				AccessToken:  "access",
				RefreshToken: "refresh",
				User:         &users.UserDTO{ID: uuid.New(), Email: req.Email},
			}, nil
		},
	}

	resp := httptest.NewRecorder()
	AuthLogin(svc, nil).ServeHTTP(resp, newJSONRequest(http.MethodPost, "/", `{"email":"ayesha@example.com","password":"secret-pass"}`))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "access", resp.Header().Get(tokenHeader))

	var got auth.LoginResponse
	decodeData(t, resp, &got)
	assert.Equal(t, "refresh", got.RefreshToken)
}

func TestAuthLoginNormalizesEmail(t *testing.T) {
	var got string
	svc := stubAuthService{
		loginFn: func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
			got = req.Email
			return &auth.LoginResponse{AccessToken: "access", User: &users.UserDTO{ID: uuid.New(), Email: req.Email}}, nil
		},
	}

	resp := httptest.NewRecorder()
	AuthLogin(svc, logger.New(logger.Options{Output: io.Discard})).ServeHTTP(resp, newJSONRequest(http.MethodPost, "/", `{"email":"Bilal.Khan@Example.PK","password":"secret-pass"}`))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "bilal.khan@example.pk", got)
}

func TestAuthLoginRejectsBadBodies(t *testing.T) {
	svc := stubAuthService{
		loginFn: func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	for _, body := range []string{
		``,
		`{"email":"not-an-email","password":"x"}`,
		`{"email":"ayesha@example.com"}`,
		`{"email":"ayesha@example.com","password":"x","role":"admin"}`,
	} {
		resp := httptest.NewRecorder()
		AuthLogin(svc, nil).ServeHTTP(resp, newJSONRequest(http.MethodPost, "/", body))
		assert.Equal(t, http.StatusBadRequest, resp.Code, body)
	}
}

func TestAuthLoginPropagatesUnauthorized(t *testing.T) {
	svc := stubAuthService{
		loginFn: func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
		},
	}

	resp := httptest.NewRecorder()
	AuthLogin(svc, nil).ServeHTTP(resp, newJSONRequest(http.MethodPost, "/", `{"email":"ayesha@example.com","password":"wrong"}`))

	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeUnauthorized), decodeError(t, resp).Code)
}

func TestAuthRefreshRequiresBearer(t *testing.T) {
	svc := stubAuthService{
		refreshFn: func(ctx context.Context, access, refresh string) (*auth.TokenPair, error) {
			assert.Equal(t, "expired-access", access)
			assert.Equal(t, "refresh-1", refresh)
			return &auth.TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
		},
	}

	resp := httptest.NewRecorder()
	AuthRefresh(svc, nil).ServeHTTP(resp, newJSONRequest(http.MethodPost, "/", `{"refresh_token":"refresh-1"}`))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	req := newJSONRequest(http.MethodPost, "/", `{"refresh_token":"refresh-1"}`)
	req.Header.Set("Authorization", "Bearer expired-access")
	resp = httptest.NewRecorder()
	AuthRefresh(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "access-2", resp.Header().Get(tokenHeader))
	var pair auth.TokenPair
	decodeData(t, resp, &pair)
	assert.Equal(t, "refresh-2", pair.RefreshToken)
}

func TestAuthLogout(t *testing.T) {
	called := false
	svc := stubAuthService{
		logoutFn: func(ctx context.Context, accessID string) error {
			called = true
			return nil
		},
	}

	resp := httptest.NewRecorder()
	AuthLogout(svc, nil).ServeHTTP(resp, newJSONRequest(http.MethodPost, "/", ""))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, called)
	var body map[string]string
	decodeData(t, resp, &body)
	assert.Equal(t, "logged_out", body["status"])
}

func TestParseBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer  xyz": "xyz",
		"raw-token":   "raw-token",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", header)
		got, err := parseBearerToken(req)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := parseBearerToken(httptest.NewRequest(http.MethodPost, "/", nil))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
