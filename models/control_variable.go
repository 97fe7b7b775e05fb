package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ControlVariable is one programmed/executed value of an operator over a scheduling window.
// Bonus and kilometer rows share the table and are told apart by VariableCode.
type ControlVariable struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OperatorCode    string          `gorm:"size:32;not null;index:idx_control_variables_operator_code" json:"operator_code"`
	VariableCode    string          `gorm:"size:128;not null;index:idx_control_variables_variable_code" json:"variable_code"`
	ProgrammedValue decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"programmed_value"`
	ExecutedValue   decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"executed_value"`
	WindowStart     time.Time       `gorm:"type:date;not null;index:idx_control_variables_window,priority:1" json:"window_start"`
	WindowEnd       time.Time       `gorm:"type:date;not null;index:idx_control_variables_window,priority:2" json:"window_end"`
	ExecutionDate   *time.Time      `gorm:"type:date" json:"execution_date,omitempty"`
	BatchID         *uuid.UUID      `gorm:"type:uuid;index:idx_control_variables_batch_id" json:"batch_id,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_control_variables_created_at" json:"created_at"`
}

func (ControlVariable) TableName() string {
	return "control_variables"
}

// ControlVariableFilter represents filter criteria for control variable queries
type ControlVariableFilter struct {
	ID            *uint
	OperatorCode  *string
	VariableCode  *string
	BatchID       *uuid.UUID
	StartsAfter   *time.Time
	StartsBefore  *time.Time
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
