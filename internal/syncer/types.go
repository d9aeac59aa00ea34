package syncer

import (
	"context"
	"time"

	"bluecrm/attribsync/internal/entity"
	"bluecrm/attribsync/internal/notify"
	"bluecrm/attribsync/internal/platform"
)

// Options 同步触发参数
type Options struct {
	FullSync    bool       `json:"full_sync"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	TriggeredBy string     `json:"triggered_by"`
}

// 触发来源常量
const (
	TriggeredByManual    = "manual"
	TriggeredByScheduled = "scheduled"
)

// StartResult 同步触发结果
type StartResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	SyncID  string `json:"sync_id,omitempty"`
}

// EntityError 单条记录处理失败明细
type EntityError struct {
	Entity    string `json:"entity"`
	RecordKey string `json:"record_key"`
	Message   string `json:"message"`
}

// RunDetails 同步记录的详情字段内容
type RunDetails struct {
	Summary   string        `json:"summary"`
	Errors    []EntityError `json:"errors,omitempty"`
	StartDate *time.Time    `json:"start_date,omitempty"`
	EndDate   *time.Time    `json:"end_date,omitempty"`
}

// RunStore 同步记录存储依赖
type RunStore interface {
	Create(ctx context.Context, run *entity.SyncRun) error
	Update(ctx context.Context, runID string, updates map[string]interface{}) error
	GetActive(ctx context.Context, tenantID string) (*entity.SyncRun, error)
	GetByID(ctx context.Context, runID string) (*entity.SyncRun, error)
	LastSuccessfulStartedAt(ctx context.Context, tenantID string) (*entity.SyncRun, error)
}

// OrderStore 订单存储依赖
type OrderStore interface {
	UpsertFromPlatform(ctx context.Context, tenantID string, rec *platform.OrderRecord) (bool, error)
}

// CatalogStore 商品/客户存储依赖
type CatalogStore interface {
	UpsertProduct(ctx context.Context, tenantID string, rec *platform.ProductRecord) (bool, error)
	UpsertCustomer(ctx context.Context, tenantID string, rec *platform.CustomerRecord) (bool, error)
}

// StatsStore 统计存储依赖
type StatsStore interface {
	RecordOrder(ctx context.Context, tenantID string, rec *platform.OrderRecord) error
}

// CredentialStore 凭证存储依赖
type CredentialStore interface {
	ListByTenant(ctx context.Context, tenantID string) ([]entity.PlatformCredential, error)
}

// OrderSource 订单平台数据源（增量分页拉取）
type OrderSource interface {
	Ping(ctx context.Context) error
	ListChangedOrders(ctx context.Context, since time.Time, cursor string) (*platform.OrderPage, error)
	ListChangedProducts(ctx context.Context, since time.Time, cursor string) (*platform.ProductPage, error)
	ListChangedCustomers(ctx context.Context, since time.Time, cursor string) (*platform.CustomerPage, error)
}

// Notifier 同步完成通知依赖
type Notifier interface {
	PublishSync(ctx context.Context, notification *notify.SyncNotification) error
}
