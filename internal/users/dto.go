package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wishbridge-backend/pkg/db/models"
)

const defaultCountry = "Pakistan"

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID           uuid.UUID  `json:"id"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email"`
	Phone        *string    `json:"phone,omitempty"`
	Age          *int       `json:"age,omitempty"`
	CNICNumber   string     `json:"cnic_number"`
	CNICFrontKey *string    `json:"cnic_front_key,omitempty"`
	CNICBackKey  *string    `json:"cnic_back_key,omitempty"`
	Country      string     `json:"country"`
	City         *string    `json:"city,omitempty"`
	IsVerified   bool       `json:"is_verified"`
	SystemRole   *string    `json:"system_role,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PublicProfile is what other users may see about an account.
type PublicProfile struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
// ID may be preset when object keys must reference the user before insert.
type CreateUserDTO struct {
	ID           uuid.UUID
	FullName     string
	Email        string
	PasswordHash string
	Phone        *string
	Age          *int
	CNICNumber   string
	CNICFrontKey *string
	CNICBackKey  *string
	Country      string
	City         *string
	SystemRole   *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:           u.ID,
		FullName:     u.FullName,
		Email:        u.Email,
		Phone:        u.Phone,
		Age:          u.Age,
		CNICNumber:   u.CNICNumber,
		CNICFrontKey: u.CNICFrontKey,
		CNICBackKey:  u.CNICBackKey,
		Country:      u.Country,
		City:         u.City,
		IsVerified:   u.IsVerified,
		SystemRole:   u.SystemRole,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// FromModels maps a slice, keeping order.
func FromModels(rows []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

// ToModel builds a new, unverified user. Email is stored lower-cased.
func (c CreateUserDTO) ToModel() *models.User {
	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	country := strings.TrimSpace(c.Country)
	if country == "" {
		country = defaultCountry
	}

	return &models.User{
		ID:           id,
		FullName:     c.FullName,
		Email:        strings.ToLower(strings.TrimSpace(c.Email)),
		PasswordHash: c.PasswordHash,
		Phone:        c.Phone,
		Age:          c.Age,
		CNICNumber:   c.CNICNumber,
		CNICFrontKey: c.CNICFrontKey,
		CNICBackKey:  c.CNICBackKey,
		Country:      country,
		City:         c.City,
		IsVerified:   false,
		SystemRole:   c.SystemRole,
	}
}
