// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/operator-ranking/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// AdminRepository defines operations for dashboard administrators
type AdminRepository interface {
	Repository[models.Admin, models.AdminFilter]
	ByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, adminID uint, at time.Time) error
}

// OperatorRepository defines operations for operator identities
type OperatorRepository interface {
	Repository[models.Operator, models.OperatorFilter]
	ByCode(ctx context.Context, code string) (*models.Operator, error)
	ByCodes(ctx context.Context, codes []string) ([]*models.Operator, error)
	ListAll(ctx context.Context) ([]*models.Operator, error)
	// UpdateAttribute sets one attribute column. Unknown codes are inserted.
	UpdateAttribute(ctx context.Context, code, column, value string) error
	// UpsertBatch inserts operators, updating the given columns when the code exists.
	UpsertBatch(ctx context.Context, operators []*models.Operator, columns []string) error
}

// WindowQuery selects control variables by window. Nil bounds select all history.
type WindowQuery struct {
	OperatorCode *string
	Start        *time.Time
	End          *time.Time
	// Keywords restricts variable codes to those containing any keyword, case-insensitively.
	Keywords []string
}

// ControlVariableRepository defines operations for bonus and kilometer rows
type ControlVariableRepository interface {
	Repository[models.ControlVariable, models.ControlVariableFilter]
	InWindow(ctx context.Context, q WindowQuery) ([]*models.ControlVariable, error)
	// LatestDates maps each operator code to its latest execution date, falling back to the window end.
	LatestDates(ctx context.Context, keywords []string) (map[string]time.Time, error)
	ByOperatorCodes(ctx context.Context, codes []string) ([]*models.ControlVariable, error)
}

// IncidentRepository defines operations for incidents
type IncidentRepository interface {
	Repository[models.Incident, models.IncidentFilter]
	Since(ctx context.Context, operatorCode *string, since *time.Time) ([]*models.Incident, error)
	ByOperatorCodes(ctx context.Context, codes []string) ([]*models.Incident, error)
}

// UploadAuditRepository defines operations for upload audits
type UploadAuditRepository interface {
	Repository[models.UploadAudit, models.UploadAuditFilter]
	ByBatchID(ctx context.Context, batchID string) (*models.UploadAudit, error)
	ListLatest(ctx context.Context, kind *string, limit int) ([]*models.UploadAudit, error)
}
