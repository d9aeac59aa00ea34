package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 统计周期类型
const (
	PeriodTypeYear  = "year"
	PeriodTypeMonth = "month"
	PeriodTypeDay   = "day"
)

// 统计维度
const (
	DimensionProduct       = "product"
	DimensionPaymentMethod = "payment_method"
	DimensionAffiliate     = "affiliate"
)

// SyncStats 租户级统计汇总，按 (period_type, period_value) 聚合
// 只通过存储层的原子自增更新，不做应用层读-改-写
type SyncStats struct {
	ID           uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID     string          `gorm:"column:tenant_id;type:varchar(64);not null;uniqueIndex:uk_tenant_period"`
	PeriodType   string          `gorm:"column:period_type;type:varchar(8);not null;uniqueIndex:uk_tenant_period"`
	PeriodValue  string          `gorm:"column:period_value;type:varchar(16);not null;uniqueIndex:uk_tenant_period"`
	TotalOrders  int64           `gorm:"column:total_orders;not null;default:0"`
	TotalRevenue decimal.Decimal `gorm:"column:total_revenue;type:decimal(16,2);not null;default:0"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (SyncStats) TableName() string {
	return "sync_stats"
}

// StatBreakdown 分布统计行（按商品/支付方式/推广码）
type StatBreakdown struct {
	ID          uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID    string          `gorm:"column:tenant_id;type:varchar(64);not null;uniqueIndex:uk_breakdown"`
	PeriodType  string          `gorm:"column:period_type;type:varchar(8);not null;uniqueIndex:uk_breakdown"`
	PeriodValue string          `gorm:"column:period_value;type:varchar(16);not null;uniqueIndex:uk_breakdown"`
	Dimension   string          `gorm:"column:dimension;type:varchar(32);not null;uniqueIndex:uk_breakdown"`
	Label       string          `gorm:"column:label;type:varchar(128);not null;uniqueIndex:uk_breakdown"`
	OrderCount  int64           `gorm:"column:order_count;not null;default:0"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(16,2);not null;default:0"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (StatBreakdown) TableName() string {
	return "stat_breakdowns"
}

// PeriodValues 返回时间对应的三个统计周期键
func PeriodValues(t time.Time) map[string]string {
	return map[string]string{
		PeriodTypeYear:  t.Format("2006"),
		PeriodTypeMonth: t.Format("2006-01"),
		PeriodTypeDay:   t.Format("2006-01-02"),
	}
}
