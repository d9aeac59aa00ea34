package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Order 订单实体（含归因结果）
type Order struct {
	// 基础字段
	ID              string `gorm:"column:id;primaryKey;type:varchar(64)"`
	TenantID        string `gorm:"column:tenant_id;type:varchar(64);not null;uniqueIndex:uk_tenant_platform_order;index:idx_tenant_status"`
	PlatformOrderID string `gorm:"column:platform_order_id;type:varchar(128);not null;uniqueIndex:uk_tenant_platform_order"`
	OrderCode       string `gorm:"column:order_code;type:varchar(128);index:idx_order_code"`

	// 订单数据
	CustomerEmail string          `gorm:"column:customer_email;type:varchar(255);index:idx_customer_email"`
	Total         decimal.Decimal `gorm:"column:total;type:decimal(14,2);not null"`
	PaymentMethod string          `gorm:"column:payment_method;type:varchar(64)"`
	Status        string          `gorm:"column:status;type:varchar(32);not null"`
	RawData       datatypes.JSON  `gorm:"column:raw_data;type:json"`

	// 归因状态与结果
	AttributionStatus  string         `gorm:"column:attribution_status;type:varchar(16);not null;default:'PENDING';index:idx_tenant_status"`
	AttributionSummary datatypes.JSON `gorm:"column:attribution_summary;type:json"`
	AIVerdict          datatypes.JSON `gorm:"column:ai_verdict;type:json"`
	AttributedAt       *time.Time     `gorm:"column:attributed_at"`

	// 时间戳
	PlatformCreatedAt time.Time `gorm:"column:platform_created_at"`
	PlatformUpdatedAt time.Time `gorm:"column:platform_updated_at"`
	CreatedAt         time.Time `gorm:"column:created_at;not null;index:idx_created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// 归因状态常量
const (
	AttributionStatusPending  = "PENDING"
	AttributionStatusAnalyzed = "ANALYZED"
	AttributionStatusFailed   = "FAILED"
)
