package common

import (
	"context"
	"time"

	"bluecrm/attribsync/internal/correlation"
	"bluecrm/attribsync/internal/entity"
	"bluecrm/attribsync/internal/notify"
	"bluecrm/attribsync/internal/platform"
	"bluecrm/attribsync/internal/refine"
	"bluecrm/attribsync/pkg/logger"
)

// SyncExecutor 同步执行依赖
type SyncExecutor interface {
	Execute(ctx context.Context, runID string) error
}

// OrderStore 订单存储依赖
type OrderStore interface {
	GetByOrderKey(ctx context.Context, tenantID, orderKey string) (*entity.Order, error)
	UpdateAttribution(ctx context.Context, orderID string, status string, summary interface{}, verdict interface{}) error
}

// CredentialStore 凭证存储依赖
type CredentialStore interface {
	ListByTenant(ctx context.Context, tenantID string) ([]entity.PlatformCredential, error)
}

// Refiner AI 精炼依赖
type Refiner interface {
	Enabled() bool
	Refine(ctx context.Context, rec *platform.CrossPlatformRecord, summary *correlation.Summary) (*refine.Verdict, error)
}

// Notifier 结果通知依赖
type Notifier interface {
	PublishAttribution(ctx context.Context, notification *notify.AttributionNotification) error
}

// Collector 跨平台数据汇集依赖
type Collector interface {
	Assemble(ctx context.Context, clients *platform.ClientSet, orderKey string) (*platform.CrossPlatformRecord, []string, error)
}

// Deps Handler 依赖集合（Manager 装配后注入 GetProcess）
type Deps struct {
	Syncer         SyncExecutor
	Orders         OrderStore
	Creds          CredentialStore
	Refiner        Refiner
	Notifier       Notifier
	Collector      Collector
	CorrelationCfg correlation.Config
	PageSize       int
	HTTPTimeout    time.Duration
	Log            logger.Logger
}
