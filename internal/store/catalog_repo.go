package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bluecrm/attribsync/internal/entity"
	"bluecrm/attribsync/internal/platform"
	"bluecrm/attribsync/pkg/errorutil"
)

// CatalogRepository 商品/客户仓储实现（MySQL）
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建商品/客户仓储实例
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// UpsertProduct 按平台商品写入或更新，存在则更新数据字段
func (r *CatalogRepository) UpsertProduct(ctx context.Context, tenantID string, rec *platform.ProductRecord) (bool, error) {
	var existing entity.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND platform_product_id = ?", tenantID, rec.PlatformProductID).
		First(&existing).Error

	rawJSON, marshalErr := json.Marshal(rec.Raw)
	if marshalErr != nil {
		return false, errorutil.Persistence(marshalErr)
	}

	now := time.Now()

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, errorutil.Persistence(err)
		}

		po := &entity.Product{
			ID:                uuid.NewString(),
			TenantID:          tenantID,
			PlatformProductID: rec.PlatformProductID,
			Name:              rec.Name,
			Price:             rec.Price,
			RawData:           rawJSON,
			PlatformUpdatedAt: rec.UpdatedAt,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
			return false, errorutil.Persistence(err)
		}
		return true, nil
	}

	err = r.db.WithContext(ctx).
		Model(&entity.Product{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"name":                rec.Name,
			"price":               rec.Price,
			"raw_data":            rawJSON,
			"platform_updated_at": rec.UpdatedAt,
			"updated_at":          now,
		}).Error
	if err != nil {
		return false, errorutil.Persistence(err)
	}
	return false, nil
}

// UpsertCustomer 按平台客户写入或更新，存在则更新数据字段
func (r *CatalogRepository) UpsertCustomer(ctx context.Context, tenantID string, rec *platform.CustomerRecord) (bool, error) {
	var existing entity.Customer
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND platform_customer_id = ?", tenantID, rec.PlatformCustomerID).
		First(&existing).Error

	rawJSON, marshalErr := json.Marshal(rec.Raw)
	if marshalErr != nil {
		return false, errorutil.Persistence(marshalErr)
	}

	now := time.Now()

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, errorutil.Persistence(err)
		}

		po := &entity.Customer{
			ID:                 uuid.NewString(),
			TenantID:           tenantID,
			PlatformCustomerID: rec.PlatformCustomerID,
			Name:               rec.Name,
			Email:              rec.Email,
			RawData:            rawJSON,
			PlatformUpdatedAt:  rec.UpdatedAt,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
			return false, errorutil.Persistence(err)
		}
		return true, nil
	}

	err = r.db.WithContext(ctx).
		Model(&entity.Customer{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"name":                rec.Name,
			"email":               rec.Email,
			"raw_data":            rawJSON,
			"platform_updated_at": rec.UpdatedAt,
			"updated_at":          now,
		}).Error
	if err != nil {
		return false, errorutil.Persistence(err)
	}
	return false, nil
}
