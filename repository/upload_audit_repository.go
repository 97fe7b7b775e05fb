package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/operator-ranking/models"
	"github.com/amirphl/operator-ranking/utils"
	"gorm.io/gorm"
)

// UploadAuditRepositoryImpl implements UploadAuditRepository interface
type UploadAuditRepositoryImpl struct {
	*BaseRepository[models.UploadAudit, models.UploadAuditFilter]
}

// NewUploadAuditRepository creates a new upload audit repository
func NewUploadAuditRepository(db *gorm.DB) UploadAuditRepository {
	return &UploadAuditRepositoryImpl{
		BaseRepository: NewBaseRepository[models.UploadAudit, models.UploadAuditFilter](db),
	}
}

// ByBatchID retrieves the audit row of one upload batch
func (r *UploadAuditRepositoryImpl) ByBatchID(ctx context.Context, batchID string) (*models.UploadAudit, error) {
	parsed, err := utils.ParseUUID(batchID)
	if err != nil {
		return nil, err
	}

	audits, err := r.ByFilter(ctx, models.UploadAuditFilter{BatchID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(audits) == 0 {
		return nil, nil
	}
	return audits[0], nil
}

// ListLatest retrieves the most recent audits, newest first, with the admin preloaded
func (r *UploadAuditRepositoryImpl) ListLatest(ctx context.Context, kind *string, limit int) ([]*models.UploadAudit, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.UploadAudit{}), models.UploadAuditFilter{Kind: kind})
	query = paginate(query, "created_at DESC, id DESC", "", limit, 0)

	var audits []*models.UploadAudit
	if err := query.Preload("Admin").Find(&audits).Error; err != nil {
		return nil, fmt.Errorf("failed to list upload audits: %w", err)
	}
	return audits, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *UploadAuditRepositoryImpl) applyFilter(query *gorm.DB, filter models.UploadAuditFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.BatchID != nil {
		query = query.Where("batch_id = ?", *filter.BatchID)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.AdminID != nil {
		query = query.Where("admin_id = ?", *filter.AdminID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves upload audits based on filter criteria
func (r *UploadAuditRepositoryImpl) ByFilter(ctx context.Context, filter models.UploadAuditFilter, orderBy string, limit, offset int) ([]*models.UploadAudit, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.UploadAudit{}), filter)
	query = paginate(query, orderBy, "id DESC", limit, offset)

	var audits []*models.UploadAudit
	if err := query.Find(&audits).Error; err != nil {
		return nil, fmt.Errorf("failed to find upload audits: %w", err)
	}
	return audits, nil
}

// Count returns the number of upload audits matching the filter
func (r *UploadAuditRepositoryImpl) Count(ctx context.Context, filter models.UploadAuditFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.UploadAudit{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count upload audits: %w", err)
	}
	return count, nil
}

// Exists checks if any upload audit matching the filter exists
func (r *UploadAuditRepositoryImpl) Exists(ctx context.Context, filter models.UploadAuditFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
