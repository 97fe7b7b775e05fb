package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/operator-ranking/models"
	"gorm.io/gorm"
)

// IncidentRepositoryImpl implements IncidentRepository interface
type IncidentRepositoryImpl struct {
	*BaseRepository[models.Incident, models.IncidentFilter]
}

// NewIncidentRepository creates a new incident repository
func NewIncidentRepository(db *gorm.DB) IncidentRepository {
	return &IncidentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Incident, models.IncidentFilter](db),
	}
}

// Since returns incidents starting on or after since, optionally for a single operator
func (r *IncidentRepositoryImpl) Since(ctx context.Context, operatorCode *string, since *time.Time) ([]*models.Incident, error) {
	filter := models.IncidentFilter{OperatorCode: operatorCode, StartsAfter: since}
	return r.ByFilter(ctx, filter, "operator_code ASC, window_start ASC, id ASC", 0, 0)
}

// ByOperatorCodes returns every incident of the given operators
func (r *IncidentRepositoryImpl) ByOperatorCodes(ctx context.Context, codes []string) ([]*models.Incident, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	db := r.getDB(ctx)

	var rows []*models.Incident
	if err := db.Where("operator_code IN ?", codes).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find incidents by operator: %w", err)
	}
	return rows, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *IncidentRepositoryImpl) applyFilter(query *gorm.DB, filter models.IncidentFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.OperatorCode != nil {
		query = query.Where("operator_code = ?", *filter.OperatorCode)
	}
	if filter.FactorCode != nil {
		query = query.Where("factor_code = ?", *filter.FactorCode)
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
	return query
}

// ByFilter retrieves incidents based on filter criteria
func (r *IncidentRepositoryImpl) ByFilter(ctx context.Context, filter models.IncidentFilter, orderBy string, limit, offset int) ([]*models.Incident, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Incident{}), filter)
	query = paginate(query, orderBy, "id DESC", limit, offset)

	var rows []*models.Incident
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find incidents: %w", err)
	}
	return rows, nil
}

// Count returns the number of incidents matching the filter
func (r *IncidentRepositoryImpl) Count(ctx context.Context, filter models.IncidentFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Incident{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count incidents: %w", err)
	}
	return count, nil
}

// Exists checks if any incident matching the filter exists
func (r *IncidentRepositoryImpl) Exists(ctx context.Context, filter models.IncidentFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
