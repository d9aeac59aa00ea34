package entity

import (
	"time"

	"gorm.io/datatypes"
)

// PlatformCredential 租户级平台凭证行
// 凭证只在单次同步/归因操作的生命周期内持有，禁止缓存、禁止写入日志
type PlatformCredential struct {
	ID       uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID string `gorm:"column:tenant_id;type:varchar(64);not null;uniqueIndex:uk_tenant_provider"`
	Provider string `gorm:"column:provider;type:varchar(32);not null;uniqueIndex:uk_tenant_provider"`

	APIURL    string `gorm:"column:api_url;type:varchar(255);not null"`
	APIKey    string `gorm:"column:api_key;type:varchar(255);not null"`
	APISecret string `gorm:"column:api_secret;type:varchar(255)"`
	StoreID   string `gorm:"column:store_id;type:varchar(128)"`

	// Extra 平台特有的附加字段（如 GA4 property_id）
	Extra datatypes.JSON `gorm:"column:extra;type:json"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (PlatformCredential) TableName() string {
	return "platform_credentials"
}
