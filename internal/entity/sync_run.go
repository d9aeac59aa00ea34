package entity

import (
	"time"

	"gorm.io/datatypes"
)

// SyncRun 同步执行记录
// 每个租户同一时刻最多存在一条 running/processing 状态的记录（乐观校验，不是分布式锁）
type SyncRun struct {
	ID       string `gorm:"column:id;primaryKey;type:varchar(64)"`
	TenantID string `gorm:"column:tenant_id;type:varchar(64);not null;index:idx_tenant_status;index:idx_tenant_started"`
	Status   string `gorm:"column:status;type:varchar(32);not null;index:idx_tenant_status"`

	FullSync    bool   `gorm:"column:full_sync;not null;default:false"`
	TriggeredBy string `gorm:"column:triggered_by;type:varchar(32)"`

	// 执行进度
	TotalRecords  int `gorm:"column:total_records;not null;default:0"`
	OrderCount    int `gorm:"column:order_count;not null;default:0"`
	ProductCount  int `gorm:"column:product_count;not null;default:0"`
	CustomerCount int `gorm:"column:customer_count;not null;default:0"`
	ErrorCount    int `gorm:"column:error_count;not null;default:0"`

	// 详情（摘要文本、逐实体错误列表、可选日期范围）
	Details datatypes.JSON `gorm:"column:details;type:json"`

	// 时间戳
	StartedAt  time.Time  `gorm:"column:started_at;not null;index:idx_tenant_started"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;not null"`
	FinishedAt *time.Time `gorm:"column:finished_at"`
	DurationMs int64      `gorm:"column:duration_ms;not null;default:0"`
}

// TableName 指定表名
func (SyncRun) TableName() string {
	return "sync_runs"
}

// 同步状态常量
// 状态机：running -> processing -> {completed | completed_with_errors | failed}
const (
	SyncStatusRunning             = "running"
	SyncStatusProcessing          = "processing"
	SyncStatusCompleted           = "completed"
	SyncStatusCompletedWithErrors = "completed_with_errors"
	SyncStatusFailed              = "failed"
)

// IsActive 判断是否为进行中状态
func (r *SyncRun) IsActive() bool {
	return r.Status == SyncStatusRunning || r.Status == SyncStatusProcessing
}

// IsTerminal 判断是否为终态
func (r *SyncRun) IsTerminal() bool {
	return !r.IsActive()
}

// IsSuccessful 判断是否成功结束（含部分失败）
func (r *SyncRun) IsSuccessful() bool {
	return r.Status == SyncStatusCompleted || r.Status == SyncStatusCompletedWithErrors
}
