package auth

import (
	"time"

	"github.com/angelmondragon/wishbridge-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the tokens and user produced by a successful login.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}

// TokenPair is returned when a session is rotated.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SendOTPInput starts a signup.
type SendOTPInput struct {
	Email      string
	FullName   string
	Password   string
	CNICNumber string
}

// OTPSent tells the client when the code stops working and when it may ask for another.
type OTPSent struct {
	Email         string    `json:"email"`
	ExpiresAt     time.Time `json:"expires_at"`
	ResendAllowed time.Time `json:"resend_allowed_at"`
}

// Document is an uploaded identity document image.
type Document struct {
	Filename string
	Content  []byte
}

// CompleteSignupInput carries the profile and identity documents that finish a verified signup.
type CompleteSignupInput struct {
	Email     string
	Phone     *string
	Age       *int
	Country   string
	City      *string
	CNICFront Document
	CNICBack  Document
}

// pendingSignup is the Redis record kept between send-otp and complete.
type pendingSignup struct {
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"password_hash"`
	CNICNumber   string    `json:"cnic_number"`
	OTPHash      string    `json:"otp_hash"`
	Attempts     int       `json:"attempts"`
	Verified     bool      `json:"verified"`
	LastSentAt   time.Time `json:"last_sent_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}
