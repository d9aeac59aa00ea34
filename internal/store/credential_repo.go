package store

import (
	"context"

	"gorm.io/gorm"

	"bluecrm/attribsync/internal/entity"
	"bluecrm/attribsync/pkg/errorutil"
)

// CredentialRepository 平台凭证仓储实现（MySQL）
// 返回的凭证行只允许在单次操作内使用，调用方不得缓存
type CredentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository 创建凭证仓储实例
func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// ListByTenant 查询租户配置的全部平台凭证
func (r *CredentialRepository) ListByTenant(ctx context.Context, tenantID string) ([]entity.PlatformCredential, error) {
	var rows []entity.PlatformCredential
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&rows).Error
	if err != nil {
		return nil, errorutil.Persistence(err)
	}
	return rows, nil
}
