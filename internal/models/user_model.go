package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username          string     `gorm:"uniqueIndex;size:100" json:"username"`
	Email             string     `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password          string     `gorm:"size:255;not null" json:"-"`
	FullName          string     `gorm:"size:100" json:"full_name,omitempty"`
	Phone             string     `gorm:"size:30" json:"phone,omitempty"`
	Timezone          string     `gorm:"size:50" json:"timezone,omitempty"`
	Role              string     `gorm:"size:20;default:'user'" json:"role"`
	AuthProvider      string     `gorm:"size:50;default:'local'" json:"auth_provider"`
	EmailVerified     bool       `gorm:"default:false" json:"email_verified"`
	VerificationToken *string    `gorm:"size:255" json:"-"`
	FailedAttempts    int        `gorm:"default:0" json:"-"`
	LockedUntil       *time.Time `json:"-"`
	RefreshToken      *string    `gorm:"size:1024" json:"-"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	IsActive          bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	PasswordResets []PasswordReset `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Locked reports whether the account is under an active lockout.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
