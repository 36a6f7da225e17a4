package controllers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/wishbridge-backend/api/responses"
	"github.com/angelmondragon/wishbridge-backend/api/validators"
	"github.com/angelmondragon/wishbridge-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/wishbridge-backend/pkg/errors"
	"github.com/angelmondragon/wishbridge-backend/pkg/logger"
)

const (
	defaultCountry = "Pakistan"
	// form fields and headers on top of the two documents
	multipartOverhead = 64 << 10
)

type sendOTPRequest struct {
	Email      string `json:"email" validate:"required,email"`
	FullName   string `json:"full_name" validate:"required,min=1,max=100"`
	Password   string `json:"password" validate:"required,min=8"`
	CNICNumber string `json:"cnic_number" validate:"required,cnic"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric"`
}

type resendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type completeSignupForm struct {
	Email   string `form:"email" validate:"required,email"`
	Phone   string `form:"phone" validate:"omitempty,max=20"`
	Age     string `form:"age" validate:"omitempty,numeric"`
	Country string `form:"country" validate:"omitempty,min=2,max=60"`
	City    string `form:"city" validate:"omitempty,max=80"`
}

func (f completeSignupForm) toInput() (auth.CompleteSignupInput, error) {
	input := auth.CompleteSignupInput{
		Email:   validators.NormalizeEmail(f.Email),
		Country: strings.TrimSpace(f.Country),
	}
	if input.Country == "" {
		input.Country = defaultCountry
	}
	if phone := strings.TrimSpace(f.Phone); phone != "" {
		input.Phone = &phone
	}
	if city := strings.TrimSpace(f.City); city != "" {
		input.City = &city
	}
	if f.Age != "" {
		age, err := strconv.Atoi(f.Age)
		if err != nil || age < 18 || age > 120 {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{"age": "must be between 18 and 120"})
		}
		input.Age = &age
	}
	return input, nil
}

// SignupSendOTP starts a signup and mails a one-time code.
func SignupSendOTP(svc auth.SignupService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body sendOTPRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sent, err := svc.SendSignupOTP(r.Context(), auth.SendOTPInput{
			Email:      body.Email,
			FullName:   validators.SanitizeString(body.FullName, 100),
			Password:   body.Password,
			CNICNumber: body.CNICNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sent)
	}
}

func SignupVerifyOTP(svc auth.SignupService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body verifyOTPRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.VerifySignupOTP(r.Context(), body.Email, body.OTP); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"email": validators.NormalizeEmail(body.Email), "verified": true})
	}
}

func SignupResendOTP(svc auth.SignupService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body resendOTPRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sent, err := svc.ResendSignupOTP(r.Context(), body.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sent)
	}
}

// SignupComplete accepts the multipart profile form with cnic_front and cnic_back images.
func SignupComplete(svc auth.SignupService, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 2*maxUploadBytes+multipartOverhead)
		if err := r.ParseMultipartForm(2*maxUploadBytes + multipartOverhead); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "upload too large"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}
		defer func() {
			_ = r.MultipartForm.RemoveAll()
		}()

		form := completeSignupForm{
			Email:   r.FormValue("email"),
			Phone:   r.FormValue("phone"),
			Age:     r.FormValue("age"),
			Country: r.FormValue("country"),
			City:    r.FormValue("city"),
		}
		if err := validators.ValidateStruct(form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := form.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if input.CNICFront, err = readDocument(r, "cnic_front", maxUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.CNICBack, err = readDocument(r, "cnic_back", maxUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.CompleteSignup(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, user)
	}
}

func readDocument(r *http.Request, field string, limit int64) (auth.Document, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return auth.Document{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{field: "is required"})
		}
		return auth.Document{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read "+field)
	}
	defer func(f multipart.File) {
		_ = f.Close()
	}(file)

	// one extra byte lets the service see the oversize
	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return auth.Document{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read "+field)
	}
	return auth.Document{Filename: header.Filename, Content: content}, nil
}
