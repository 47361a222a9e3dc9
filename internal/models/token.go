package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrMissingExpiry is returned when a token row is saved without expires_at
var ErrMissingExpiry = errors.New("expires_at must be provided for tokens")

// AccessToken represents the access_tokens table.
// Token holds the signed JWT exactly as handed to the client.
type AccessToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Token     string    `gorm:"not null;size:512;uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

// TableName specifies the table name for AccessToken model
func (AccessToken) TableName() string {
	return "access_tokens"
}

// BeforeCreate refuses rows without an expiry
func (t *AccessToken) BeforeCreate(*gorm.DB) error {
	if t.ExpiresAt.IsZero() {
		return ErrMissingExpiry
	}
	return nil
}

// RefreshToken represents the refresh_tokens table.
// Token holds the SHA-256 hex digest of the value handed to the client.
// AccessTokenID points at the access token issued alongside it; the link is
// cleared, not cascaded, when that access token goes away.
type RefreshToken struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	UserID        uint         `gorm:"not null;index" json:"user_id"`
	User          *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AccessTokenID *uint        `gorm:"index" json:"access_token_id,omitempty"`
	AccessToken   *AccessToken `gorm:"foreignKey:AccessTokenID;constraint:OnDelete:SET NULL" json:"-"`
	Token         string       `gorm:"not null;size:64;uniqueIndex" json:"-"`
	CreatedAt     time.Time    `json:"created_at"`
	ExpiresAt     time.Time    `gorm:"not null;index" json:"expires_at"`
}

// TableName specifies the table name for RefreshToken model
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// BeforeCreate refuses rows without an expiry
func (t *RefreshToken) BeforeCreate(*gorm.DB) error {
	if t.ExpiresAt.IsZero() {
		return ErrMissingExpiry
	}
	return nil
}

// Expired reports whether the refresh token is no longer usable at now
func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
