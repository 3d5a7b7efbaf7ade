package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// User represents the canonical identity entity.
type User struct {
	ID                  uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Username            string           `gorm:"column:username;type:text;not null;uniqueIndex"`
	Email               string           `gorm:"column:email;type:text;not null;uniqueIndex"`
	Phone               *string          `gorm:"column:phone"`
	PasswordHash        string           `gorm:"column:password_hash;not null"`
	Role                enums.UserRole   `gorm:"column:role;type:text;not null;default:'user'"`
	Status              enums.UserStatus `gorm:"column:status;type:text;not null;default:'Allowed'"`
	Address             *types.Address   `gorm:"column:address;type:jsonb;serializer:json"`
	ResetPasswordToken  *string          `gorm:"column:reset_password_token;index"`
	ResetPasswordExpire *time.Time       `gorm:"column:reset_password_expire"`
	LastLoginAt         *time.Time       `gorm:"column:last_login_at"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// IsBanned reports whether an admin blocked the account.
func (u *User) IsBanned() bool {
	return u != nil && u.Status == enums.UserStatusBanned
}
