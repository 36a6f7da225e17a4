package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a marketplace account: wish owner, traveler, or both.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	FullName     string     `gorm:"column:full_name;not null"`
	Email        string     `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Phone        *string    `gorm:"column:phone"`
	Age          *int       `gorm:"column:age"`
	CNICNumber   string     `gorm:"column:cnic_number;not null;uniqueIndex"`
	CNICFrontKey *string    `gorm:"column:cnic_front_key"`
	CNICBackKey  *string    `gorm:"column:cnic_back_key"`
	Country      string     `gorm:"column:country;not null;default:Pakistan"`
	City         *string    `gorm:"column:city"`
	IsVerified   bool       `gorm:"column:is_verified;not null;default:false"`
	SystemRole   *string    `gorm:"column:system_role"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
