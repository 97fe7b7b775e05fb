package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/operator-ranking/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnknownAttributeColumn is returned when an attribute update names a non attribute column
var ErrUnknownAttributeColumn = errors.New("unknown operator attribute column")

// OperatorRepositoryImpl implements OperatorRepository interface
type OperatorRepositoryImpl struct {
	*BaseRepository[models.Operator, models.OperatorFilter]
}

// NewOperatorRepository creates a new operator repository
func NewOperatorRepository(db *gorm.DB) OperatorRepository {
	return &OperatorRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Operator, models.OperatorFilter](db),
	}
}

// ByCode retrieves an operator by its code
func (r *OperatorRepositoryImpl) ByCode(ctx context.Context, code string) (*models.Operator, error) {
	operators, err := r.ByFilter(ctx, models.OperatorFilter{Code: &code}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(operators) == 0 {
		return nil, nil
	}
	return operators[0], nil
}

// ByCodes retrieves every operator whose code is listed
func (r *OperatorRepositoryImpl) ByCodes(ctx context.Context, codes []string) ([]*models.Operator, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	return r.ByFilter(ctx, models.OperatorFilter{Codes: codes}, "code ASC", 0, 0)
}

// ListAll returns every operator ordered by code
func (r *OperatorRepositoryImpl) ListAll(ctx context.Context) ([]*models.Operator, error) {
	return r.ByFilter(ctx, models.OperatorFilter{}, "code ASC", 0, 0)
}

// UpdateAttribute sets zone, sponsor or task for one operator, inserting it when the code is new
func (r *OperatorRepositoryImpl) UpdateAttribute(ctx context.Context, code, column, value string) (err error) {
	if !models.IsOperatorAttributeColumn(column) {
		return fmt.Errorf("%w: %s", ErrUnknownAttributeColumn, column)
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	defer finish(db, shouldCommit, &err)

	now := time.Now().UTC()
	res := db.Model(&models.Operator{}).Where("code = ?", code).Updates(map[string]any{
		column:       value,
		"updated_at": now,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update operator %s %s: %w", code, column, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	op := &models.Operator{Code: code, CreatedAt: now, UpdatedAt: now}
	switch column {
	case models.OperatorColumnZone:
		op.Zone = value
	case models.OperatorColumnSponsor:
		op.Sponsor = value
	case models.OperatorColumnTask:
		op.Task = value
	}
	if err = db.Create(op).Error; err != nil {
		return fmt.Errorf("failed to create operator %s: %w", code, err)
	}
	return nil
}

// UpsertBatch inserts operators and updates columns on code conflicts
func (r *OperatorRepositoryImpl) UpsertBatch(ctx context.Context, operators []*models.Operator, columns []string) (err error) {
	if len(operators) == 0 {
		return nil
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	defer finish(db, shouldCommit, &err)

	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}
	if len(columns) > 0 {
		onConflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns(append(append([]string(nil), columns...), "updated_at")),
		}
	}

	err = db.Clauses(onConflict).CreateInBatches(operators, defaultBatchSize).Error
	if err != nil {
		return fmt.Errorf("failed to upsert operators: %w", err)
	}
	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *OperatorRepositoryImpl) applyFilter(query *gorm.DB, filter models.OperatorFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Code != nil {
		query = query.Where("code = ?", *filter.Code)
	}
	if len(filter.Codes) > 0 {
		query = query.Where("code IN ?", filter.Codes)
	}
	if filter.NationalID != nil {
		query = query.Where("national_id = ?", *filter.NationalID)
	}
	if filter.Zone != nil {
		query = query.Where("zone = ?", *filter.Zone)
	}
	if filter.Sponsor != nil {
		query = query.Where("sponsor = ?", *filter.Sponsor)
	}
	if filter.Task != nil {
		query = query.Where("task = ?", *filter.Task)
	}
	return query
}

// ByFilter retrieves operators based on filter criteria
func (r *OperatorRepositoryImpl) ByFilter(ctx context.Context, filter models.OperatorFilter, orderBy string, limit, offset int) ([]*models.Operator, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Operator{}), filter)
	query = paginate(query, orderBy, "id DESC", limit, offset)

	var operators []*models.Operator
	if err := query.Find(&operators).Error; err != nil {
		return nil, fmt.Errorf("failed to find operators: %w", err)
	}
	return operators, nil
}

// Count returns the number of operators matching the filter
func (r *OperatorRepositoryImpl) Count(ctx context.Context, filter models.OperatorFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Operator{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count operators: %w", err)
	}
	return count, nil
}

// Exists checks if any operator matching the filter exists
func (r *OperatorRepositoryImpl) Exists(ctx context.Context, filter models.OperatorFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
