package sync

import "bluecrm/attribsync/internal/service"

// SyncHandler 同步 HTTP 处理器
type SyncHandler struct {
	syncService *service.SyncService
}

// NewSyncHandler 创建同步处理器实例
func NewSyncHandler(syncService *service.SyncService) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
	}
}
