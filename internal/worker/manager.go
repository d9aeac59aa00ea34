package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"bluecrm/attribsync/internal/correlation"
	"bluecrm/attribsync/internal/framework"
	"bluecrm/attribsync/internal/jobs"
	"bluecrm/attribsync/internal/jobs/common"
	"bluecrm/attribsync/internal/notify"
	"bluecrm/attribsync/internal/refine"
	"bluecrm/attribsync/internal/store"
	"bluecrm/attribsync/internal/syncer"
	"bluecrm/attribsync/pkg/config"
	"bluecrm/attribsync/pkg/lmstfy"
	"bluecrm/attribsync/pkg/logger"
)

// Manager 接口
type Manager interface {
	Start() error
	Shutdown()
}

// ManagerInstance Manager 实例
// 装配存储层、通知器、AI 精炼与同步编排器，按配置启动全部 Worker
type ManagerInstance struct {
	ctx          context.Context
	cfg          *config.Config
	lmstfyClient *lmstfy.Client
	notifier     *notify.Notifier
	deps         *common.Deps
	workers      []Worker
	closing      *atomic.Bool
	shutdownCh   chan struct{}
	wg           sync.WaitGroup
	logger       logger.Logger
}

// NewManagerInstance 创建 Manager
func NewManagerInstance(cfg *config.Config, log logger.Logger) (Manager, error) {
	ctx := context.Background()

	// 初始化 lmstfy 客户端
	lmstfyClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create lmstfy client: %w", err)
	}

	// 初始化数据库与仓储
	db, err := store.Open(cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	runRepo := store.NewSyncRunRepository(db)
	orderRepo := store.NewOrderRepository(db)
	catalogRepo := store.NewCatalogRepository(db)
	statsRepo := store.NewStatsRepository(db)
	credRepo := store.NewCredentialRepository(db)

	// 初始化通知器
	notifier, err := notify.NewNotifier(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	// 初始化 AI 精炼适配器
	refiner, err := refine.New(ctx, cfg.Refine, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create refiner: %w", err)
	}

	// 初始化同步编排器
	orchestrator := syncer.NewOrchestrator(
		runRepo,
		orderRepo,
		catalogRepo,
		statsRepo,
		credRepo,
		notifier,
		syncer.DefaultClientFactory(cfg.Sync.PageSize, cfg.Sync.HTTPTimeout),
		log,
	)

	deps := &common.Deps{
		Syncer:         orchestrator,
		Orders:         orderRepo,
		Creds:          credRepo,
		Refiner:        refiner,
		Notifier:       notifier,
		Collector:      correlation.NewCollector(log),
		CorrelationCfg: correlation.Config{PreferTagging: cfg.Correlation.PreferTagging},
		PageSize:       cfg.Sync.PageSize,
		HTTPTimeout:    cfg.Sync.HTTPTimeout,
		Log:            log,
	}

	log.Infof(ctx, "[Manager] Initialized with %d worker configs", len(cfg.Workers))

	return &ManagerInstance{
		ctx:          ctx,
		cfg:          cfg,
		lmstfyClient: lmstfyClient,
		notifier:     notifier,
		deps:         deps,
		closing:      atomic.NewBool(false),
		shutdownCh:   make(chan struct{}),
		workers:      make([]Worker, 0),
		logger:       log,
	}, nil
}

// Start 启动 Manager
func (m *ManagerInstance) Start() error {
	m.logger.Infof(m.ctx, "[Manager] Starting...")

	// 1. 加载所有 Worker
	if err := m.loadWorkers(); err != nil {
		return fmt.Errorf("failed to load workers: %w", err)
	}

	m.logger.Infof(m.ctx, "[Manager] All workers loaded, count: %d", len(m.workers))

	// 2. 启动所有 Worker（每个 Worker 在独立 goroutine）
	for _, worker := range m.workers {
		w := worker
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			w.Start()
		}()
		m.logger.Infof(m.ctx, "[Manager] Worker started: %s", w.GetName())
	}

	m.logger.Infof(m.ctx, "[Manager] Start success")

	// 3. 阻塞等待退出信号
	<-m.shutdownCh

	return nil
}

// Shutdown 优雅退出
func (m *ManagerInstance) Shutdown() {
	m.logger.Infof(m.ctx, "[Manager] Began to close")

	// 原子操作，保证并发安全
	if m.closing.CAS(false, true) {
		// 1. 所有 Worker 安全退出
		for _, worker := range m.workers {
			m.logger.Infof(m.ctx, "[Manager] Shutting down worker: %s", worker.GetName())
			worker.Shutdown()
		}

		// 2. 等待所有 Worker 退出
		m.wg.Wait()

		// 3. 释放通知器连接
		if err := m.notifier.Close(); err != nil {
			m.logger.Warnf(m.ctx, "[Manager] Close notifier failed: %v", err)
		}

		// 4. 关闭信号通道
		close(m.shutdownCh)

		m.logger.Infof(m.ctx, "[Manager] Shutdown complete")
	}
}

// loadWorkers 加载所有 Worker
func (m *ManagerInstance) loadWorkers() error {
	for _, workerCfg := range m.cfg.Workers {
		subCfg := &framework.SubscriberConfig{
			QueueName:    workerCfg.QueueName,
			Concurrency:  workerCfg.Subscriber.Threads,
			Rate:         workerCfg.Subscriber.Rate,
			Timeout:      workerCfg.Subscriber.Timeout,
			TTR:          workerCfg.Subscriber.TTR,
			ErrorBackoff: workerCfg.Subscriber.ErrorBackoff,
		}

		procCfg := &framework.ProcessorConfig{
			Concurrency: workerCfg.Processor.Threads,
			BufferSize:  workerCfg.Processor.BufferSize,
			Timeout:     workerCfg.Processor.Timeout,
		}

		getProcess := jobs.GetProcess(m.logger, m.deps)

		worker, err := NewWorkerInstance(
			m.ctx,
			workerCfg.Name,
			subCfg,
			procCfg,
			m.lmstfyClient,
			getProcess,
			m.logger,
		)
		if err != nil {
			return fmt.Errorf("failed to create worker %s: %w", workerCfg.Name, err)
		}

		m.workers = append(m.workers, worker)
	}

	return nil
}
