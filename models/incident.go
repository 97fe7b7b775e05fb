package models

import (
	"time"

	"github.com/google/uuid"
)

// Incident is a novelty registered against an operator. WindowEnd stays nil while it is open.
type Incident struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	OperatorCode string     `gorm:"size:32;not null;index:idx_incidents_operator_code" json:"operator_code"`
	FactorCode   string     `gorm:"size:16;not null;index:idx_incidents_factor_code" json:"factor_code"`
	WindowStart  time.Time  `gorm:"type:date;not null;index:idx_incidents_window_start" json:"window_start"`
	WindowEnd    *time.Time `gorm:"type:date" json:"window_end,omitempty"`
	Observation  string     `gorm:"type:text;not null;default:''" json:"observation"`
	BatchID      *uuid.UUID `gorm:"type:uuid;index:idx_incidents_batch_id" json:"batch_id,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_incidents_created_at" json:"created_at"`
}

func (Incident) TableName() string {
	return "incidents"
}

// IncidentFilter represents filter criteria for incident queries
type IncidentFilter struct {
	ID           *uint
	OperatorCode *string
	FactorCode   *string
	BatchID      *uuid.UUID
	StartsAfter  *time.Time
	StartsBefore *time.Time
}
