package models

import (
	"time"

	"github.com/google/uuid"
)

type UploadAudit struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BatchID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_upload_audits_batch_id" json:"batch_id"`
	Kind       string    `gorm:"size:32;not null;index:idx_upload_audits_kind" json:"kind"`
	Filename   string    `gorm:"size:255;not null" json:"filename"`
	Total      int       `gorm:"not null;default:0" json:"total"`
	Changed    int       `gorm:"not null;default:0" json:"changed"`
	Unchanged  int       `gorm:"not null;default:0" json:"unchanged"`
	Missing    int       `gorm:"not null;default:0" json:"missing"`
	Unmatched  int       `gorm:"not null;default:0" json:"unmatched"`
	Malformed  int       `gorm:"not null;default:0" json:"malformed"`
	Duplicates int       `gorm:"not null;default:0" json:"duplicates"`
	Created    int       `gorm:"not null;default:0" json:"created"`
	AdminID    *uint     `gorm:"index:idx_upload_audits_admin_id" json:"admin_id,omitempty"`
	Admin      *Admin    `gorm:"foreignKey:AdminID;references:ID" json:"admin,omitempty"`
	RequestID  *string   `gorm:"size:255;index:idx_upload_audits_request_id" json:"request_id,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_upload_audits_created_at" json:"created_at"`
}

func (UploadAudit) TableName() string {
	return "upload_audits"
}

// Upload kinds
const (
	UploadKindZones            = "zones"
	UploadKindSponsors         = "sponsors"
	UploadKindTasks            = "tasks"
	UploadKindIncidents        = "incidents"
	UploadKindControlVariables = "control_variables"
	UploadKindOperators        = "operators"
)

// UploadAuditFilter represents filter criteria for upload audit queries
type UploadAuditFilter struct {
	ID            *uint
	BatchID       *uuid.UUID
	Kind          *string
	AdminID       *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
