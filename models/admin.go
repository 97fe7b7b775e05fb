// Package models contains the persisted entities of the operator ranking service
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Admin is a dashboard user allowed to log in and upload spreadsheets.
// Ranking reads never require an admin.
type Admin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_admins_uuid" json:"uuid"`
	Username     string    `gorm:"size:255;not null;uniqueIndex:uk_admins_username" json:"username"`
	DisplayName  *string   `gorm:"size:255" json:"display_name,omitempty"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	IsActive     *bool     `gorm:"default:true;index:idx_admins_is_active" json:"is_active"`

	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func (Admin) TableName() string {
	return "admins"
}

// Label is the name shown next to upload audits
func (a Admin) Label() string {
	if a.DisplayName != nil && strings.TrimSpace(*a.DisplayName) != "" {
		return *a.DisplayName
	}
	return a.Username
}

// AdminFilter represents filter criteria for admin queries
type AdminFilter struct {
	ID       *uint
	Username *string
	IsActive *bool
}
