package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Product 商品实体（来自订单平台的增量同步）
type Product struct {
	ID                string          `gorm:"column:id;primaryKey;type:varchar(64)"`
	TenantID          string          `gorm:"column:tenant_id;type:varchar(64);not null;uniqueIndex:uk_tenant_platform_product"`
	PlatformProductID string          `gorm:"column:platform_product_id;type:varchar(128);not null;uniqueIndex:uk_tenant_platform_product"`
	Name              string          `gorm:"column:name;type:varchar(255)"`
	Price             decimal.Decimal `gorm:"column:price;type:decimal(14,2)"`
	RawData           datatypes.JSON  `gorm:"column:raw_data;type:json"`
	PlatformUpdatedAt time.Time       `gorm:"column:platform_updated_at"`
	CreatedAt         time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// Customer 客户实体（来自订单平台的增量同步）
type Customer struct {
	ID                 string         `gorm:"column:id;primaryKey;type:varchar(64)"`
	TenantID           string         `gorm:"column:tenant_id;type:varchar(64);not null;uniqueIndex:uk_tenant_platform_customer"`
	PlatformCustomerID string         `gorm:"column:platform_customer_id;type:varchar(128);not null;uniqueIndex:uk_tenant_platform_customer"`
	Name               string         `gorm:"column:name;type:varchar(255)"`
	Email              string         `gorm:"column:email;type:varchar(255);index:idx_customer_email"`
	RawData            datatypes.JSON `gorm:"column:raw_data;type:json"`
	PlatformUpdatedAt  time.Time      `gorm:"column:platform_updated_at"`
	CreatedAt          time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}
