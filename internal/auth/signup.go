package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wishbridge-backend/internal/users"
	"github.com/angelmondragon/wishbridge-backend/pkg/config"
	"github.com/angelmondragon/wishbridge-backend/pkg/db"
	"github.com/angelmondragon/wishbridge-backend/pkg/db/models"
	"github.com/angelmondragon/wishbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wishbridge-backend/pkg/errors"
	"github.com/angelmondragon/wishbridge-backend/pkg/logger"
	"github.com/angelmondragon/wishbridge-backend/pkg/outbox"
	"github.com/angelmondragon/wishbridge-backend/pkg/outbox/payloads"
	redisclient "github.com/angelmondragon/wishbridge-backend/pkg/redis"
	"github.com/angelmondragon/wishbridge-backend/pkg/security"
)

const (
	minPasswordLength = 8
	maxFullNameLength = 100
)

var (
	cnicPattern          = regexp.MustCompile(`^\d{5}-\d{7}-\d$`)
	allowedDocumentTypes = []string{"image/jpeg", "image/png"}
)

type pendingStore interface {
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	ReplaceJSON(ctx context.Context, key string, value any) error
	GetJSON(ctx context.Context, key string, dest any) error
	Del(ctx context.Context, keys ...string) error
	SignupKey(email string) string
}

type documentStore interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, object string) error
}

type signupUsers interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByCNIC(ctx context.Context, cnic string) (bool, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// SignupService drives the email OTP signup: send, verify, resend, complete.
type SignupService interface {
	SendSignupOTP(ctx context.Context, input SendOTPInput) (*OTPSent, error)
	VerifySignupOTP(ctx context.Context, email, code string) error
	ResendSignupOTP(ctx context.Context, email string) (*OTPSent, error)
	CompleteSignup(ctx context.Context, input CompleteSignupInput) (*users.UserDTO, error)
}

// SignupServiceParams packages the dependencies for the signup flow.
type SignupServiceParams struct {
	Users          signupUsers
	Pending        pendingStore
	Documents      documentStore
	Tx             txRunner
	Outbox         outboxPublisher
	PasswordConfig config.PasswordConfig
	OTPConfig      config.OTPConfig
	MaxUploadBytes int64
	Logger         *logger.Logger
}

type signupService struct {
	users       signupUsers
	pending     pendingStore
	documents   documentStore
	tx          txRunner
	outbox      outboxPublisher
	passwordCfg config.PasswordConfig
	otpCfg      config.OTPConfig
	maxUpload   int64
	logg        *logger.Logger
	now         func() time.Time
}

// NewSignupService builds a signup service with the provided dependencies.
func NewSignupService(params SignupServiceParams) (SignupService, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Pending == nil {
		return nil, fmt.Errorf("pending signup store is required")
	}
	if params.Documents == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher is required")
	}
	if params.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("max upload bytes must be positive")
	}
	return &signupService{
		users:       params.Users,
		pending:     params.Pending,
		documents:   params.Documents,
		tx:          params.Tx,
		outbox:      params.Outbox,
		passwordCfg: params.PasswordConfig,
		otpCfg:      params.OTPConfig,
		maxUpload:   params.MaxUploadBytes,
		logg:        params.Logger,
		now:         time.Now,
	}, nil
}

func (s *signupService) SendSignupOTP(ctx context.Context, input SendOTPInput) (*OTPSent, error) {
	email := normalizeEmail(input.Email)
	fullName := strings.TrimSpace(input.FullName)
	cnic := strings.TrimSpace(input.CNICNumber)
	switch {
	case email == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	case fullName == "" || len([]rune(fullName)) > maxFullNameLength:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name must be 1-100 characters")
	case len(input.Password) < minPasswordLength:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	case !cnicPattern.MatchString(cnic):
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cnic must match #####-#######-#")
	}

	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}
	taken, err = s.users.ExistsByCNIC(ctx, cnic)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check cnic")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cnic already registered")
	}

	existing, err := s.load(ctx, email)
	if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, err
	}
	if existing != nil {
		if err := s.checkCooldown(existing); err != nil {
			return nil, err
		}
	}

	passwordHash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	record := &pendingSignup{
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		CNICNumber:   cnic,
	}
	return s.issueCode(ctx, record, false)
}

func (s *signupService) VerifySignupOTP(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	record, err := s.load(ctx, email)
	if err != nil {
		return err
	}
	if record.Verified {
		return nil
	}

	if !security.VerifyOTP(email, code, record.OTPHash) {
		record.Attempts++
		if s.otpCfg.MaxAttempts > 0 && record.Attempts >= s.otpCfg.MaxAttempts {
			if err := s.pending.Del(ctx, s.pending.SignupKey(email)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drop pending signup")
			}
			return pkgerrors.New(pkgerrors.CodeValidation, "too many invalid codes; start signup again")
		}
		if err := s.pending.ReplaceJSON(ctx, s.pending.SignupKey(email), record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record otp attempt")
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired otp")
	}

	record.Verified = true
	if err := s.pending.ReplaceJSON(ctx, s.pending.SignupKey(email), record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark signup verified")
	}
	return nil
}

func (s *signupService) ResendSignupOTP(ctx context.Context, email string) (*OTPSent, error) {
	email = normalizeEmail(email)
	record, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.checkCooldown(record); err != nil {
		return nil, err
	}
	record.Attempts = 0
	record.Verified = false
	return s.issueCode(ctx, record, true)
}

func (s *signupService) CompleteSignup(ctx context.Context, input CompleteSignupInput) (*users.UserDTO, error) {
	email := normalizeEmail(input.Email)
	record, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}
	if !record.Verified {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "email not verified")
	}

	frontType, err := s.checkDocument("cnic_front", input.CNICFront)
	if err != nil {
		return nil, err
	}
	backType, err := s.checkDocument("cnic_back", input.CNICBack)
	if err != nil {
		return nil, err
	}

	userID := uuid.New()
	frontKey := documentKey(userID, "front")
	backKey := documentKey(userID, "back")

	if _, err := s.documents.Upload(ctx, frontKey, frontType, bytes.NewReader(input.CNICFront.Content)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload cnic front")
	}
	if _, err := s.documents.Upload(ctx, backKey, backType, bytes.NewReader(input.CNICBack.Content)); err != nil {
		s.discardDocuments(ctx, frontKey)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload cnic back")
	}

	country := strings.TrimSpace(input.Country)
	user, err := s.users.Create(ctx, users.CreateUserDTO{
		ID:           userID,
		FullName:     record.FullName,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		Phone:        trimmedPtr(input.Phone),
		Age:          input.Age,
		CNICNumber:   record.CNICNumber,
		CNICFrontKey: &frontKey,
		CNICBackKey:  &backKey,
		Country:      country,
		City:         trimmedPtr(input.City),
	})
	if err != nil {
		s.discardDocuments(ctx, frontKey, backKey)
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email or cnic already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	if err := s.pending.Del(ctx, s.pending.SignupKey(email)); err != nil && s.logg != nil {
		// the user exists now; a stale pending record only expires later
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"email": email}), "pending signup cleanup failed")
	}

	return users.FromModel(user), nil
}

func (s *signupService) issueCode(ctx context.Context, record *pendingSignup, resend bool) (*OTPSent, error) {
	code, err := security.GenerateOTP(s.otpCfg.Length)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}

	now := s.now().UTC()
	ttl := s.otpCfg.TTLDuration()
	record.OTPHash = security.HashOTP(record.Email, code)
	record.LastSentAt = now
	record.ExpiresAt = now.Add(ttl)

	key := s.pending.SignupKey(record.Email)
	if err := s.pending.SetJSON(ctx, key, record, ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store pending signup")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSignupOTPRequested,
			AggregateType: enums.AggregatePendingSignup,
			AggregateID:   pendingSignupID(record.Email),
			Data: payloads.SignupOTPRequestedEvent{
				Email:     record.Email,
				FullName:  record.FullName,
				Code:      code,
				ExpiresAt: record.ExpiresAt,
				Resend:    resend,
			},
			OccurredAt: now,
		})
	})
	if err != nil {
		if !resend {
			_ = s.pending.Del(ctx, key)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue otp email")
	}

	return &OTPSent{
		Email:         record.Email,
		ExpiresAt:     record.ExpiresAt,
		ResendAllowed: now.Add(s.otpCfg.ResendCooldown),
	}, nil
}

func (s *signupService) load(ctx context.Context, email string) (*pendingSignup, error) {
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	var record pendingSignup
	if err := s.pending.GetJSON(ctx, s.pending.SignupKey(email), &record); err != nil {
		if errors.Is(err, redisclient.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pending signup for email")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending signup")
	}
	return &record, nil
}

func (s *signupService) checkCooldown(record *pendingSignup) error {
	next := record.LastSentAt.Add(s.otpCfg.ResendCooldown)
	if s.now().Before(next) {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "otp recently sent; try again later").
			WithDetails(map[string]any{"retry_at": next.UTC()})
	}
	return nil
}

func (s *signupService) checkDocument(field string, doc Document) (string, error) {
	if len(doc.Content) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
	}
	if int64(len(doc.Content)) > s.maxUpload {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s exceeds %d bytes", field, s.maxUpload))
	}
	detected := mimetype.Detect(doc.Content)
	for _, allowed := range allowedDocumentTypes {
		if detected.Is(allowed) {
			return allowed, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, field+" must be a JPEG or PNG image").
		WithDetails(map[string]any{"detected": detected.String()})
}

func (s *signupService) discardDocuments(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.documents.Delete(ctx, key); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"object": key}), "identity document cleanup failed")
		}
	}
}

func documentKey(userID uuid.UUID, side string) string {
	return fmt.Sprintf("identity/%s/%s", userID, side)
}

// pendingSignupID gives the outbox row a stable aggregate id before any user row exists.
func pendingSignupID(email string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("wishbridge:signup:"+email))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
