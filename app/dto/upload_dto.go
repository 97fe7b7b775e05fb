package dto

const (
	UploadModePreview = "preview"
	UploadModeCommit  = "commit"
)

// UploadQuery selects whether an upload is only diffed or also written.
type UploadQuery struct {
	Mode string `query:"mode" validate:"omitempty,oneof=preview commit"`
}

type UploadRowDTO struct {
	Line         int    `json:"line" example:"3"`
	OperatorCode string `json:"operator_code" example:"0102"`
	OperatorName string `json:"operator_name" example:"Luis"`
	Previous     string `json:"previous" example:"SUR"`
	New          string `json:"new" example:"CENTRO"`
	Status       string `json:"status" example:"changed"`
}

type UnmatchedRowDTO struct {
	Line       int    `json:"line" example:"6"`
	Code       string `json:"code,omitempty" example:"999"`
	NationalID string `json:"national_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Value      string `json:"value" example:"SUR"`
}

type RowErrorDTO struct {
	Line   int    `json:"line" example:"7"`
	Reason string `json:"reason" example:"missing operator code"`
}

type DuplicateDTO struct {
	Line int    `json:"line" example:"3"`
	Key  string `json:"key" example:"42|2024-03-01|5"`
}

type UploadCountsDTO struct {
	Total      int `json:"total"`
	Changed    int `json:"changed"`
	Unchanged  int `json:"unchanged"`
	Missing    int `json:"missing"`
	Unmatched  int `json:"unmatched"`
	Malformed  int `json:"malformed"`
	Duplicates int `json:"duplicates"`
	Created    int `json:"created"`
	Updated    int `json:"updated"`
}

// AttributeUploadResponse reports a zone, sponsor or task reconciliation.
type AttributeUploadResponse struct {
	Attribute        string            `json:"attribute" example:"zone"`
	Mode             string            `json:"mode" example:"preview"`
	Committed        bool              `json:"committed"`
	BatchID          string            `json:"batch_id,omitempty"`
	Counts           UploadCountsDTO   `json:"counts"`
	Changed          []UploadRowDTO    `json:"changed"`
	Unchanged        []UploadRowDTO    `json:"unchanged"`
	AttributeMissing []UploadRowDTO    `json:"attribute_missing"`
	Unmatched        []UnmatchedRowDTO `json:"unmatched"`
	Malformed        []RowErrorDTO     `json:"malformed"`
}

// ImportUploadResponse reports an incident, control variable or operator import.
type ImportUploadResponse struct {
	Kind       string          `json:"kind" example:"incidents"`
	Mode       string          `json:"mode" example:"commit"`
	Committed  bool            `json:"committed"`
	BatchID    string          `json:"batch_id,omitempty"`
	Counts     UploadCountsDTO `json:"counts"`
	Duplicates []DuplicateDTO  `json:"duplicates"`
	Malformed  []RowErrorDTO   `json:"malformed"`
	// Existing lists rows that are already stored and were skipped.
	Existing []DuplicateDTO `json:"existing"`
}

type UploadAuditQuery struct {
	Kind  string `query:"kind" validate:"omitempty,oneof=zones sponsors tasks incidents control_variables operators"`
	Limit int    `query:"limit" validate:"omitempty,gte=1,lte=200"`
}

type UploadAuditDTO struct {
	BatchID       string `json:"batch_id"`
	Kind          string `json:"kind" example:"zones"`
	Filename      string `json:"filename" example:"zonas.xlsx"`
	Total         int    `json:"total"`
	Changed       int    `json:"changed"`
	Unchanged     int    `json:"unchanged"`
	Missing       int    `json:"missing"`
	Unmatched     int    `json:"unmatched"`
	Malformed     int    `json:"malformed"`
	Duplicates    int    `json:"duplicates"`
	Created       int    `json:"created"`
	AdminUsername string `json:"admin_username,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	CreatedAt     string `json:"created_at" example:"2024-04-01T10:30:00Z"`
}

type UploadAuditListResponse struct {
	Items []UploadAuditDTO `json:"items"`
	Total int              `json:"total"`
}
