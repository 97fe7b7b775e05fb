package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/operator-ranking/models"
	"gorm.io/gorm"
)

// ControlVariableRepositoryImpl implements ControlVariableRepository interface
type ControlVariableRepositoryImpl struct {
	*BaseRepository[models.ControlVariable, models.ControlVariableFilter]
}

// NewControlVariableRepository creates a new control variable repository
func NewControlVariableRepository(db *gorm.DB) ControlVariableRepository {
	return &ControlVariableRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ControlVariable, models.ControlVariableFilter](db),
	}
}

// InWindow returns the rows whose window touches [Start, End]: either boundary inside it, or overlapping it
func (r *ControlVariableRepositoryImpl) InWindow(ctx context.Context, q WindowQuery) ([]*models.ControlVariable, error) {
	db := r.getDB(ctx)
	query := withKeywords(db.Model(&models.ControlVariable{}), q.Keywords)

	if q.OperatorCode != nil {
		query = query.Where("operator_code = ?", *q.OperatorCode)
	}
	if q.Start != nil && q.End != nil {
		query = query.Where(
			"(window_start BETWEEN @start AND @end) OR (window_end BETWEEN @start AND @end) OR (window_start <= @end AND window_end >= @start)",
			map[string]any{"start": *q.Start, "end": *q.End},
		)
	}

	var rows []*models.ControlVariable
	if err := query.Order("operator_code ASC, window_start ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find control variables in window: %w", err)
	}
	return rows, nil
}

type latestDateRow struct {
	OperatorCode string
	Latest       time.Time
}

// LatestDates maps each operator code to the date of its most recent row
func (r *ControlVariableRepositoryImpl) LatestDates(ctx context.Context, keywords []string) (map[string]time.Time, error) {
	db := r.getDB(ctx)
	query := withKeywords(db.Model(&models.ControlVariable{}), keywords).
		Select("operator_code, MAX(COALESCE(execution_date, window_end)) AS latest").
		Group("operator_code")

	var rows []latestDateRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load latest control variable dates: %w", err)
	}

	out := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		out[row.OperatorCode] = row.Latest.UTC()
	}
	return out, nil
}

// ByOperatorCodes returns every row of the given operators
func (r *ControlVariableRepositoryImpl) ByOperatorCodes(ctx context.Context, codes []string) ([]*models.ControlVariable, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	db := r.getDB(ctx)

	var rows []*models.ControlVariable
	if err := db.Where("operator_code IN ?", codes).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find control variables by operator: %w", err)
	}
	return rows, nil
}

// withKeywords keeps only rows whose variable code contains one of the keywords
func withKeywords(query *gorm.DB, keywords []string) *gorm.DB {
	if len(keywords) == 0 {
		return query
	}
	clauses := make([]string, 0, len(keywords))
	args := make([]any, 0, len(keywords))
	for _, kw := range keywords {
		clauses = append(clauses, "LOWER(variable_code) LIKE ?")
		args = append(args, "%"+strings.ToLower(kw)+"%")
	}
	return query.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// applyFilter applies filter criteria to a GORM query
func (r *ControlVariableRepositoryImpl) applyFilter(query *gorm.DB, filter models.ControlVariableFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.OperatorCode != nil {
		query = query.Where("operator_code = ?", *filter.OperatorCode)
	}
	if filter.VariableCode != nil {
		query = query.Where("LOWER(variable_code) = LOWER(?)", *filter.VariableCode)
	}
	if filter.BatchID != nil {
		query = query.Where("batch_id = ?", *filter.BatchID)
	}
	if filter.StartsAfter != nil {
		query = query.Where("window_start >= ?", *filter.StartsAfter)
	}
	if filter.StartsBefore != nil {
		query = query.Where("window_start <= ?", *filter.StartsBefore)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves control variables based on filter criteria
func (r *ControlVariableRepositoryImpl) ByFilter(ctx context.Context, filter models.ControlVariableFilter, orderBy string, limit, offset int) ([]*models.ControlVariable, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ControlVariable{}), filter)
	query = paginate(query, orderBy, "id DESC", limit, offset)

	var rows []*models.ControlVariable
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find control variables: %w", err)
	}
	return rows, nil
}

// Count returns the number of control variables matching the filter
func (r *ControlVariableRepositoryImpl) Count(ctx context.Context, filter models.ControlVariableFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ControlVariable{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count control variables: %w", err)
	}
	return count, nil
}

// Exists checks if any control variable matching the filter exists
func (r *ControlVariableRepositoryImpl) Exists(ctx context.Context, filter models.ControlVariableFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
