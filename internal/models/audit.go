package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog represents the audit_logs table
// Used for security tracking of account and session events
type AuditLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    *uint          `gorm:"index" json:"user_id"`
	Action    string         `gorm:"size:100;not null" json:"action"`
	Details   string         `gorm:"type:text" json:"details"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	User      *User          `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
}

// TableName specifies the table name for AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
