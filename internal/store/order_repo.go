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

// OrderRepository 订单仓储实现（MySQL）
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储实例
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// UpsertFromPlatform 按平台订单写入或更新本地订单
// 以 (tenant_id, platform_order_id) 判重：不存在则创建并返回 created=true，
// 存在则仅更新订单数据字段，归因字段保持不变
func (r *OrderRepository) UpsertFromPlatform(ctx context.Context, tenantID string, rec *platform.OrderRecord) (bool, error) {
	var existing entity.Order
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND platform_order_id = ?", tenantID, rec.PlatformOrderID).
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

		po := &entity.Order{
			ID:                uuid.NewString(),
			TenantID:          tenantID,
			PlatformOrderID:   rec.PlatformOrderID,
			OrderCode:         rec.OrderCode,
			CustomerEmail:     rec.CustomerEmail,
			Total:             rec.Total,
			PaymentMethod:     rec.PaymentMethod,
			Status:            rec.Status,
			RawData:           rawJSON,
			AttributionStatus: entity.AttributionStatusPending,
			PlatformCreatedAt: rec.CreatedAt,
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
		Model(&entity.Order{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"order_code":          rec.OrderCode,
			"customer_email":      rec.CustomerEmail,
			"total":               rec.Total,
			"payment_method":      rec.PaymentMethod,
			"status":              rec.Status,
			"raw_data":            rawJSON,
			"platform_created_at": rec.CreatedAt,
			"platform_updated_at": rec.UpdatedAt,
			"updated_at":          now,
		}).Error
	if err != nil {
		return false, errorutil.Persistence(err)
	}
	return false, nil
}

// GetByOrderKey 根据平台订单号或订单编号查询
// 未找到返回 (nil, nil)
func (r *OrderRepository) GetByOrderKey(ctx context.Context, tenantID, orderKey string) (*entity.Order, error) {
	var po entity.Order
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND (platform_order_id = ? OR order_code = ?)", tenantID, orderKey, orderKey).
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errorutil.Persistence(err)
	}
	return &po, nil
}

// UpdateAttribution 更新订单的归因结果
// summary 为确定性摘要（必填），verdict 为 AI 结论（可为空，整体替换旧值）
func (r *OrderRepository) UpdateAttribution(ctx context.Context, orderID string, status string, summary interface{}, verdict interface{}) error {
	updates, err := attributionUpdates(status, summary, verdict, time.Now())
	if err != nil {
		return errorutil.Persistence(err)
	}

	err = r.db.WithContext(ctx).
		Model(&entity.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
	if err != nil {
		return errorutil.Persistence(err)
	}
	return nil
}

// attributionUpdates 构建归因结果的更新字段
// 分析成功但没有 AI 结论时必须把旧结论置空，保证整体替换语义
func attributionUpdates(status string, summary, verdict interface{}, now time.Time) (map[string]interface{}, error) {
	updates := map[string]interface{}{
		"attribution_status": status,
		"attributed_at":      now,
		"updated_at":         now,
	}

	if summary != nil {
		summaryJSON, err := json.Marshal(summary)
		if err != nil {
			return nil, err
		}
		updates["attribution_summary"] = summaryJSON
	}

	verdictJSON, err := marshalPresent(verdict)
	if err != nil {
		return nil, err
	}
	switch {
	case verdictJSON != nil:
		updates["ai_verdict"] = verdictJSON
	case status == entity.AttributionStatusAnalyzed:
		updates["ai_verdict"] = nil
	}

	return updates, nil
}

// marshalPresent 序列化可空值，nil 接口与指向 nil 的指针都视为缺省
func marshalPresent(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}
