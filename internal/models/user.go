package models

import (
	"time"

	"gorm.io/datatypes"
)

// User represents the users table
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FullName     string    `gorm:"not null;size:255" json:"full_name"`
	Email        string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null;size:255" json:"-"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	RoleID       *uint     `gorm:"index" json:"role_id,omitempty"`
	Role         *Role     `gorm:"foreignKey:RoleID;constraint:OnDelete:SET NULL" json:"-"`
	ShopID       *uint     `gorm:"index" json:"shop_id,omitempty"`
	Shop         *Shop     `gorm:"foreignKey:ShopID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// Role represents the roles table
type Role struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;not null;size:50" json:"name"`
	Permissions datatypes.JSON `json:"permissions"`
}

// TableName specifies the table name for Role model
func (Role) TableName() string {
	return "roles"
}

// Shop represents the shops table. Users of one tenant share a shop.
type Shop struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Shop model
func (Shop) TableName() string {
	return "shops"
}
