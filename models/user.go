package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name         *string `gorm:"size:100" json:"name"`
	Email        string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string  `gorm:"not null" json:"-"`
	IsActive     bool    `gorm:"default:true" json:"is_active"`
	TokenVersion int     `gorm:"default:0" json:"-"`

	// OAuth users carry the provider so password login can be refused
	Provider   string `gorm:"size:20" json:"provider,omitempty"`
	ProviderID string `gorm:"size:100;index" json:"-"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// PublicUser is the reduced shape embedded in workspace member listings.
type PublicUser struct {
	ID    uint    `json:"id"`
	Name  *string `json:"name"`
	Email string  `json:"email"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

type RefreshToken struct {
	gorm.Model
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`

	User User `json:"-"`
}
