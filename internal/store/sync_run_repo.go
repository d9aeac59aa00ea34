package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bluecrm/attribsync/internal/entity"
	"bluecrm/attribsync/pkg/errorutil"
)

// SyncRunRepository 同步执行记录仓储实现（MySQL）
type SyncRunRepository struct {
	db *gorm.DB
}

// NewSyncRunRepository 创建同步记录仓储实例
func NewSyncRunRepository(db *gorm.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create 创建同步记录
func (r *SyncRunRepository) Create(ctx context.Context, run *entity.SyncRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return errorutil.Persistence(err)
	}
	return nil
}

// Update 按字段集更新同步记录
func (r *SyncRunRepository) Update(ctx context.Context, runID string, updates map[string]interface{}) error {
	err := r.db.WithContext(ctx).
		Model(&entity.SyncRun{}).
		Where("id = ?", runID).
		Updates(updates).Error
	if err != nil {
		return errorutil.Persistence(err)
	}
	return nil
}

// GetActive 查询租户当前进行中的同步记录
// 无活动记录返回 (nil, nil)
func (r *SyncRunRepository) GetActive(ctx context.Context, tenantID string) (*entity.SyncRun, error) {
	var run entity.SyncRun
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status IN ?", tenantID,
			[]string{entity.SyncStatusRunning, entity.SyncStatusProcessing}).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errorutil.Persistence(err)
	}
	return &run, nil
}

// GetByID 根据ID查询同步记录
func (r *SyncRunRepository) GetByID(ctx context.Context, runID string) (*entity.SyncRun, error) {
	var run entity.SyncRun
	err := r.db.WithContext(ctx).Where("id = ?", runID).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errorutil.Persistence(err)
	}
	return &run, nil
}

// GetLatest 查询租户最新一条同步记录（任意状态）
func (r *SyncRunRepository) GetLatest(ctx context.Context, tenantID string) (*entity.SyncRun, error) {
	var run entity.SyncRun
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errorutil.Persistence(err)
	}
	return &run, nil
}

// ListHistory 分页查询同步历史，按开始时间倒序
func (r *SyncRunRepository) ListHistory(ctx context.Context, tenantID string, page, limit int) ([]*entity.SyncRun, int64, error) {
	var total int64
	var runs []*entity.SyncRun

	query := r.db.WithContext(ctx).Model(&entity.SyncRun{}).Where("tenant_id = ?", tenantID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errorutil.Persistence(err)
	}

	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("started_at DESC").Find(&runs).Error; err != nil {
		return nil, 0, errorutil.Persistence(err)
	}

	return runs, total, nil
}

// LastSuccessfulStartedAt 查询最近一次成功同步的开始时间（增量水位）
// 从未成功过返回 (nil, nil)，调用方回退为全量
func (r *SyncRunRepository) LastSuccessfulStartedAt(ctx context.Context, tenantID string) (*entity.SyncRun, error) {
	var run entity.SyncRun
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status IN ?", tenantID,
			[]string{entity.SyncStatusCompleted, entity.SyncStatusCompletedWithErrors}).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errorutil.Persistence(err)
	}
	return &run, nil
}
