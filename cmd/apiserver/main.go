package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bluecrm/attribsync/internal/notify"
	"bluecrm/attribsync/internal/server/handlers/attribution"
	"bluecrm/attribsync/internal/server/handlers/stats"
	syncHandler "bluecrm/attribsync/internal/server/handlers/sync"
	"bluecrm/attribsync/internal/server/routers"
	"bluecrm/attribsync/internal/service"
	"bluecrm/attribsync/internal/store"
	"bluecrm/attribsync/internal/syncer"
	"bluecrm/attribsync/pkg/config"
	"bluecrm/attribsync/pkg/lmstfy"
	"bluecrm/attribsync/pkg/logger"
)

var (
	configPath = flag.String("config", "./config/apiserver.yaml", "配置文件路径")
)

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	// 2. 初始化 Logger
	zapLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// 3. 初始化基础设施组件
	db, err := store.Open(cfg.MySQL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	lmstfyClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		log.Fatalf("Failed to create lmstfy client: %v", err)
	}

	notifier, err := notify.NewNotifier(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to create notifier: %v", err)
	}
	defer notifier.Close()

	// 4. 装配仓储、编排器与服务
	runRepo := store.NewSyncRunRepository(db)
	orderRepo := store.NewOrderRepository(db)
	catalogRepo := store.NewCatalogRepository(db)
	statsRepo := store.NewStatsRepository(db)
	credRepo := store.NewCredentialRepository(db)

	orchestrator := syncer.NewOrchestrator(
		runRepo,
		orderRepo,
		catalogRepo,
		statsRepo,
		credRepo,
		notifier,
		syncer.DefaultClientFactory(cfg.Sync.PageSize, cfg.Sync.HTTPTimeout),
		zapLogger,
	)

	syncService := service.NewSyncService(orchestrator, runRepo, lmstfyClient, notifier, cfg.Lmstfy.Queue, zapLogger)
	attributionService := service.NewAttributionService(orderRepo, lmstfyClient, notifier, cfg.Lmstfy.Queue, zapLogger)
	statsService := service.NewStatsService(statsRepo)

	// 5. 创建 HTTP Server
	engine := routers.SetupRoutes(
		cfg.Server.ServiceToken,
		syncHandler.NewSyncHandler(syncService),
		attribution.NewAttributionHandler(attributionService),
		stats.NewStatsHandler(statsService),
		zapLogger,
	)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	// 6. 启动 HTTP Server（后台 goroutine）
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	// 7. 优雅停机处理
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Println("Received shutdown signal, gracefully shutting down...")
		gracefulShutdown(server)
	case err := <-serverErrChan:
		log.Fatalf("HTTP server error: %v", err)
	}

	log.Println("Application stopped")
}

// gracefulShutdown 优雅停机
func gracefulShutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped gracefully")
	}
}
