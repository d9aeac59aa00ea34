package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bluecrm/attribsync/internal/entity"
	"bluecrm/attribsync/internal/notify"
	"bluecrm/attribsync/internal/platform"
	"bluecrm/attribsync/pkg/errorutil"
	"bluecrm/attribsync/pkg/logger"
)

// ClientFactory 根据租户凭证构造订单平台数据源
// 每次执行重新构造，凭证不跨操作保留
type ClientFactory func(set platform.CredentialSet) (OrderSource, error)

// Orchestrator 同步编排器
// 两阶段执行：running 阶段拉取全部分页，processing 阶段入库并更新统计；
// 单条记录失败只累积错误不中断，订单平台不可达才判定整体失败
type Orchestrator struct {
	runs     RunStore
	orders   OrderStore
	catalog  CatalogStore
	stats    StatsStore
	creds    CredentialStore
	notifier Notifier
	factory  ClientFactory
	log      logger.Logger
}

// NewOrchestrator 创建同步编排器
func NewOrchestrator(
	runs RunStore,
	orders OrderStore,
	catalog CatalogStore,
	stats StatsStore,
	creds CredentialStore,
	notifier Notifier,
	factory ClientFactory,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		runs:     runs,
		orders:   orders,
		catalog:  catalog,
		stats:    stats,
		creds:    creds,
		notifier: notifier,
		factory:  factory,
		log:      log,
	}
}

// DefaultClientFactory 生产环境数据源工厂（wbuy 客户端）
func DefaultClientFactory(pageSize int, timeout time.Duration) ClientFactory {
	return func(set platform.CredentialSet) (OrderSource, error) {
		clients := platform.NewClientSet(set, pageSize, timeout)
		if clients.Wbuy == nil {
			return nil, fmt.Errorf("order platform credentials not configured")
		}
		return clients.Wbuy, nil
	}
}

// StartSync 触发同步：检查无进行中任务后创建 running 记录
// 同租户已有进行中任务时返回冲突，不创建新记录
func (o *Orchestrator) StartSync(ctx context.Context, tenantID string, opts Options) (*StartResult, error) {
	active, err := o.runs.GetActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return &StartResult{
			Success: false,
			Message: "sync already in progress",
			SyncID:  active.ID,
		}, errorutil.SyncConflict(fmt.Sprintf("tenant %s already has sync %s in progress", tenantID, active.ID))
	}

	details, err := json.Marshal(RunDetails{
		Summary:   "sync started",
		StartDate: opts.StartDate,
		EndDate:   opts.EndDate,
	})
	if err != nil {
		return nil, errorutil.Persistence(err)
	}

	now := time.Now()
	run := &entity.SyncRun{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Status:      entity.SyncStatusRunning,
		FullSync:    opts.FullSync,
		TriggeredBy: opts.TriggeredBy,
		Details:     details,
		StartedAt:   now,
		UpdatedAt:   now,
	}
	if err := o.runs.Create(ctx, run); err != nil {
		return nil, err
	}

	o.log.Infof(ctx, "[Syncer] Sync %s started for tenant %s (full=%v, by=%s)",
		run.ID, tenantID, opts.FullSync, opts.TriggeredBy)

	return &StartResult{Success: true, Message: "sync started", SyncID: run.ID}, nil
}

// fetchedData 拉取阶段的内存缓冲
type fetchedData struct {
	orders    []platform.OrderRecord
	products  []platform.ProductRecord
	customers []platform.CustomerRecord
	errors    []EntityError
}

// Execute 执行同步（worker 侧调用）
// 失败分层：订单平台连通性失败 -> failed；单实体/单条失败 -> 累积后 completed_with_errors
func (o *Orchestrator) Execute(ctx context.Context, runID string) error {
	run, err := o.runs.GetByID(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return errorutil.NotFound("sync_run", runID)
	}
	ctx = context.WithValue(ctx, "sync_id", run.ID)
	ctx = context.WithValue(ctx, "tenant_id", run.TenantID)

	// 1. 加载凭证并构造数据源（仅本次执行内持有）
	rows, err := o.creds.ListByTenant(ctx, run.TenantID)
	if err != nil {
		return o.finalizeFailed(ctx, run, fmt.Sprintf("load credentials failed: %v", err))
	}
	set, err := platform.BuildSet(rows)
	if err != nil {
		return o.finalizeFailed(ctx, run, fmt.Sprintf("invalid credentials: %v", err))
	}
	source, err := o.factory(set)
	if err != nil {
		return o.finalizeFailed(ctx, run, err.Error())
	}

	// 2. 连通性检查：订单平台是真相来源，不可达直接失败
	if err := source.Ping(ctx); err != nil {
		o.log.Errorf(ctx, "[Syncer] Order platform unreachable: %v", err)
		return o.finalizeFailed(ctx, run, fmt.Sprintf("order platform unreachable: %v", err))
	}

	// 3. 确定增量水位
	since, opts, err := o.resolveWindow(ctx, run)
	if err != nil {
		return o.finalizeFailed(ctx, run, err.Error())
	}

	// 4. running 阶段：拉取全部分页
	data := o.fetchAll(ctx, source, since, opts.EndDate)

	totalRecords := len(data.orders) + len(data.products) + len(data.customers)
	if err := o.runs.Update(ctx, run.ID, map[string]interface{}{
		"status":        entity.SyncStatusProcessing,
		"total_records": totalRecords,
		"updated_at":    time.Now(),
	}); err != nil {
		return err
	}
	o.log.Infof(ctx, "[Syncer] Fetched %d records (%d orders, %d products, %d customers), processing",
		totalRecords, len(data.orders), len(data.products), len(data.customers))

	// 5. processing 阶段：入库 + 统计
	orderCount, productCount, customerCount := o.process(ctx, run.TenantID, data)

	// 6. 终态落库 + 通知
	return o.finalize(ctx, run, opts, data, totalRecords, orderCount, productCount, customerCount)
}

// resolveWindow 计算本次同步的时间窗口
// 显式日期范围优先；非全量时取最近一次成功同步的开始时间作为水位；
// 全量或从未成功同步则不限起点
func (o *Orchestrator) resolveWindow(ctx context.Context, run *entity.SyncRun) (time.Time, *RunDetails, error) {
	var details RunDetails
	if len(run.Details) > 0 {
		if err := json.Unmarshal(run.Details, &details); err != nil {
			return time.Time{}, nil, fmt.Errorf("malformed run details: %w", err)
		}
	}

	if details.StartDate != nil {
		return *details.StartDate, &details, nil
	}
	if run.FullSync {
		return time.Time{}, &details, nil
	}

	last, err := o.runs.LastSuccessfulStartedAt(ctx, run.TenantID)
	if err != nil {
		return time.Time{}, nil, err
	}
	if last == nil {
		o.log.Infof(ctx, "[Syncer] No successful sync found for tenant %s, falling back to full fetch", run.TenantID)
		return time.Time{}, &details, nil
	}
	return last.StartedAt, &details, nil
}

// fetchAll 拉取三类实体的全部分页
// 单个实体拉取失败记为实体级错误，不影响其余实体
func (o *Orchestrator) fetchAll(ctx context.Context, source OrderSource, since time.Time, endDate *time.Time) *fetchedData {
	data := &fetchedData{}

	cursor := ""
	for {
		page, err := source.ListChangedOrders(ctx, since, cursor)
		if err != nil {
			data.errors = append(data.errors, EntityError{
				Entity: "order", RecordKey: cursor, Message: err.Error(),
			})
			break
		}
		for _, rec := range page.Records {
			if endDate != nil && rec.CreatedAt.After(*endDate) {
				continue
			}
			data.orders = append(data.orders, rec)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	cursor = ""
	for {
		page, err := source.ListChangedProducts(ctx, since, cursor)
		if err != nil {
			data.errors = append(data.errors, EntityError{
				Entity: "product", RecordKey: cursor, Message: err.Error(),
			})
			break
		}
		data.products = append(data.products, page.Records...)
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	cursor = ""
	for {
		page, err := source.ListChangedCustomers(ctx, since, cursor)
		if err != nil {
			data.errors = append(data.errors, EntityError{
				Entity: "customer", RecordKey: cursor, Message: err.Error(),
			})
			break
		}
		data.customers = append(data.customers, page.Records...)
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return data
}

// process 入库阶段：逐条 upsert，订单首次入库时计入统计
func (o *Orchestrator) process(ctx context.Context, tenantID string, data *fetchedData) (int, int, int) {
	var orderCount, productCount, customerCount int

	for i := range data.orders {
		rec := &data.orders[i]
		created, err := o.orders.UpsertFromPlatform(ctx, tenantID, rec)
		if err != nil {
			data.errors = append(data.errors, EntityError{
				Entity: "order", RecordKey: rec.PlatformOrderID, Message: err.Error(),
			})
			continue
		}
		orderCount++

		// 统计只计首次入库，重放同一订单不会重复累加
		if created {
			if err := o.stats.RecordOrder(ctx, tenantID, rec); err != nil {
				o.log.Warnf(ctx, "[Syncer] Stats update failed for order %s: %v", rec.PlatformOrderID, err)
				data.errors = append(data.errors, EntityError{
					Entity: "stats", RecordKey: rec.PlatformOrderID, Message: err.Error(),
				})
			}
		}
	}

	for i := range data.products {
		rec := &data.products[i]
		if _, err := o.catalog.UpsertProduct(ctx, tenantID, rec); err != nil {
			data.errors = append(data.errors, EntityError{
				Entity: "product", RecordKey: rec.PlatformProductID, Message: err.Error(),
			})
			continue
		}
		productCount++
	}

	for i := range data.customers {
		rec := &data.customers[i]
		if _, err := o.catalog.UpsertCustomer(ctx, tenantID, rec); err != nil {
			data.errors = append(data.errors, EntityError{
				Entity: "customer", RecordKey: rec.PlatformCustomerID, Message: err.Error(),
			})
			continue
		}
		customerCount++
	}

	return orderCount, productCount, customerCount
}

// finalize 写入终态并发布完成通知
func (o *Orchestrator) finalize(ctx context.Context, run *entity.SyncRun, opts *RunDetails, data *fetchedData, totalRecords, orderCount, productCount, customerCount int) error {
	status := entity.SyncStatusCompleted
	summary := fmt.Sprintf("synced %d orders, %d products, %d customers", orderCount, productCount, customerCount)
	if len(data.errors) > 0 {
		status = entity.SyncStatusCompletedWithErrors
		summary = fmt.Sprintf("%s (%d errors)", summary, len(data.errors))
	}

	detailsJSON, err := json.Marshal(RunDetails{
		Summary:   summary,
		Errors:    data.errors,
		StartDate: opts.StartDate,
		EndDate:   opts.EndDate,
	})
	if err != nil {
		return errorutil.Persistence(err)
	}

	now := time.Now()
	durationMs := now.Sub(run.StartedAt).Milliseconds()
	if err := o.runs.Update(ctx, run.ID, map[string]interface{}{
		"status":         status,
		"total_records":  totalRecords,
		"order_count":    orderCount,
		"product_count":  productCount,
		"customer_count": customerCount,
		"error_count":    len(data.errors),
		"details":        detailsJSON,
		"finished_at":    now,
		"duration_ms":    durationMs,
		"updated_at":     now,
	}); err != nil {
		return err
	}

	o.log.Infof(ctx, "[Syncer] Sync %s finished: %s (%s, %dms)", run.ID, status, summary, durationMs)
	o.publishResult(ctx, run, status, totalRecords, len(data.errors), durationMs)
	return nil
}

// finalizeFailed 写入失败终态并发布通知
func (o *Orchestrator) finalizeFailed(ctx context.Context, run *entity.SyncRun, reason string) error {
	detailsJSON, err := json.Marshal(RunDetails{Summary: reason})
	if err != nil {
		return errorutil.Persistence(err)
	}

	now := time.Now()
	durationMs := now.Sub(run.StartedAt).Milliseconds()
	if err := o.runs.Update(ctx, run.ID, map[string]interface{}{
		"status":      entity.SyncStatusFailed,
		"details":     detailsJSON,
		"error_count": 1,
		"finished_at": now,
		"duration_ms": durationMs,
		"updated_at":  now,
	}); err != nil {
		return err
	}

	o.log.Errorf(ctx, "[Syncer] Sync %s failed: %s", run.ID, reason)
	o.publishResult(ctx, run, entity.SyncStatusFailed, 0, 1, durationMs)
	return nil
}

// publishResult 发布完成通知，通知失败只记日志
func (o *Orchestrator) publishResult(ctx context.Context, run *entity.SyncRun, status string, totalRecords, errorCount int, durationMs int64) {
	if o.notifier == nil {
		return
	}
	err := o.notifier.PublishSync(ctx, &notify.SyncNotification{
		SyncID:       run.ID,
		TenantID:     run.TenantID,
		Status:       status,
		TotalRecords: totalRecords,
		ErrorCount:   errorCount,
		DurationMs:   durationMs,
	})
	if err != nil {
		o.log.Warnf(ctx, "[Syncer] Publish sync notification failed: %v", err)
	}
}
