// Package businessflow contains the use cases of the operator ranking service
package businessflow

import (
	"time"

	"github.com/amirphl/operator-ranking/app/dto"
	"github.com/amirphl/operator-ranking/models"
)

const dateLayout = "2006-01-02"

// ClientMetadata holds client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	AdminID    *uint             `json:"admin_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetAdminID records the authenticated admin
func (cm *ClientMetadata) SetAdminID(adminID uint) {
	cm.AdminID = &adminID
}

// ToAdminDTOModel converts an admin model to its API representation
func ToAdminDTOModel(admin models.Admin) dto.AdminDTO {
	out := dto.AdminDTO{
		ID:          admin.ID,
		UUID:        admin.UUID.String(),
		Username:    admin.Username,
		DisplayName: admin.Label(),
		IsActive:    admin.IsActive,
		CreatedAt:   admin.CreatedAt.Format(time.RFC3339),
	}
	if admin.LastLoginAt != nil {
		s := admin.LastLoginAt.UTC().Format(time.RFC3339)
		out.LastLoginAt = &s
	}
	return out
}

func ToAdminSessionDTO(accessToken, refreshToken string, ttl time.Duration, now time.Time) dto.AdminSessionDTO {
	return dto.AdminSessionDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(ttl.Seconds()),
		TokenType:    "Bearer",
		CreatedAt:    now.UTC().Format(time.RFC3339),
	}
}

// ToUploadAuditDTO converts an audit row; the admin is optional
func ToUploadAuditDTO(a models.UploadAudit) dto.UploadAuditDTO {
	out := dto.UploadAuditDTO{
		BatchID:    a.BatchID.String(),
		Kind:       a.Kind,
		Filename:   a.Filename,
		Total:      a.Total,
		Changed:    a.Changed,
		Unchanged:  a.Unchanged,
		Missing:    a.Missing,
		Unmatched:  a.Unmatched,
		Malformed:  a.Malformed,
		Duplicates: a.Duplicates,
		Created:    a.Created,
		CreatedAt:  a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.Admin != nil {
		out.AdminUsername = a.Admin.Label()
	}
	if a.RequestID != nil {
		out.RequestID = *a.RequestID
	}
	return out
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}
