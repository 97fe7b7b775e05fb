// Package models contains the persisted entities of the operator ranking service
package models

import (
	"time"
)

type Operator struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Code       string     `gorm:"size:32;not null;uniqueIndex:uk_operators_code" json:"code"`
	Name       string     `gorm:"size:255;not null;default:''" json:"name"`
	NationalID string     `gorm:"size:32;not null;default:'';index:idx_operators_national_id" json:"national_id"`
	Position   string     `gorm:"size:128;not null;default:''" json:"position"`
	Phone      string     `gorm:"size:32;not null;default:''" json:"phone"`
	JoinDate   *time.Time `gorm:"type:date" json:"join_date,omitempty"`
	Zone       string     `gorm:"size:128;not null;default:'';index:idx_operators_zone" json:"zone"`
	Sponsor    string     `gorm:"size:255;not null;default:'';index:idx_operators_sponsor" json:"sponsor"`
	Task       string     `gorm:"size:255;not null;default:''" json:"task"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_operators_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Operator) TableName() string {
	return "operators"
}

// Attribute columns that reconciliation uploads may overwrite
const (
	OperatorColumnZone    = "zone"
	OperatorColumnSponsor = "sponsor"
	OperatorColumnTask    = "task"
)

// IsOperatorAttributeColumn reports whether column may be set through an attribute upload
func IsOperatorAttributeColumn(column string) bool {
	switch column {
	case OperatorColumnZone, OperatorColumnSponsor, OperatorColumnTask:
		return true
	}
	return false
}

// OperatorFilter represents filter criteria for operator queries
type OperatorFilter struct {
	ID         *uint
	Code       *string
	Codes      []string
	NationalID *string
	Zone       *string
	Sponsor    *string
	Task       *string
}
