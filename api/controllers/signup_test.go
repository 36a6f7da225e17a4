package controllers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wishbridge-backend/internal/auth"
	"github.com/angelmondragon/wishbridge-backend/internal/users"
	pkgerrors "github.com/angelmondragon/wishbridge-backend/pkg/errors"
)

type stubSignupService struct {
	auth.SignupService

	sent     auth.SendOTPInput
	verified string
	verifyFn func(email, code string) error
	complete *auth.CompleteSignupInput
}

func (s *stubSignupService) SendSignupOTP(ctx context.Context, input auth.SendOTPInput) (*auth.OTPSent, error) {
	s.sent = input
	return &auth.OTPSent{Email: input.Email}, nil
}

func (s *stubSignupService) VerifySignupOTP(ctx context.Context, email, code string) error {
	s.verified = code
	if s.verifyFn != nil {
		return s.verifyFn(email, code)
	}
	return nil
}

func (s *stubSignupService) CompleteSignup(ctx context.Context, input auth.CompleteSignupInput) (*users.UserDTO, error) {
	s.complete = &input
	return &users.UserDTO{ID: uuid.New(), Email: input.Email}, nil
}

func TestSignupSendOTPValidatesBody(t *testing.T) {
	svc := &stubSignupService{}

	resp := httptest.NewRecorder()
	body := `{"email":"sana@example.com","full_name":"Sana Malik","password":"correct-horse","cnic_number":"35202-1234567-1"}`
	SignupSendOTP(svc, nil).ServeHTTP(resp, newJSONRequest(http.MethodPost, "/", body))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "35202-1234567-1", svc.sent.CNICNumber)

	resp = httptest.NewRecorder()
	body = `{"email":"sana@example.com","full_name":"Sana Malik","password":"short","cnic_number":"3520212345671"}`
	SignupSendOTP(svc, nil).ServeHTTP(resp, newJSONRequest(http.MethodPost, "/", body))
	require.Equal(t, http.StatusBadRequest, resp.Code)
	apiErr := decodeError(t, resp)
	details, ok := apiErr.Details.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "password")
	assert.Contains(t, details, "cnic_number")
}

func TestSignupVerifyOTPWrongCode(t *testing.T) {
	svc := &stubSignupService{verifyFn: func(email, code string) error {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid code")
	}}

	resp := httptest.NewRecorder()
	SignupVerifyOTP(svc, nil).ServeHTTP(resp, newJSONRequest(http.MethodPost, "/", `{"email":"sana@example.com","otp":"123456"}`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "123456", svc.verified)
}

func newSignupForm(t *testing.T, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for name, content := range files {
		part, err := writer.CreateFormFile(name, name+".png")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestSignupCompleteMultipart(t *testing.T) {
	svc := &stubSignupService{}
	png := []byte("\x89PNG\r\n\x1a\n0000")

	req := newSignupForm(t,
		map[string]string{"email": "Sana@Example.com", "phone": "+92 300 1234567", "age": "29", "city": "Karachi"},
		map[string][]byte{"cnic_front": png, "cnic_back": png},
	)
	resp := httptest.NewRecorder()
	SignupComplete(svc, 1024, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.NotNil(t, svc.complete)
	assert.Equal(t, "sana@example.com", svc.complete.Email)
	assert.Equal(t, defaultCountry, svc.complete.Country)
	require.NotNil(t, svc.complete.Age)
	assert.Equal(t, 29, *svc.complete.Age)
	assert.Equal(t, png, svc.complete.CNICFront.Content)
	assert.Equal(t, "cnic_back.png", svc.complete.CNICBack.Filename)
}

func TestSignupCompleteRejectsBadForms(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	cases := []struct {
		name   string
		fields map[string]string
		files  map[string][]byte
	}{
		{"missing back", map[string]string{"email": "sana@example.com"}, map[string][]byte{"cnic_front": png}},
		{"bad email", map[string]string{"email": "sana"}, map[string][]byte{"cnic_front": png, "cnic_back": png}},
		{"underage", map[string]string{"email": "sana@example.com", "age": "12"}, map[string][]byte{"cnic_front": png, "cnic_back": png}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubSignupService{}
			resp := httptest.NewRecorder()
			SignupComplete(svc, 1024, nil).ServeHTTP(resp, newSignupForm(t, tc.fields, tc.files))
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Nil(t, svc.complete)
		})
	}
}
