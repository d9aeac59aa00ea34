package attribution

import "bluecrm/attribsync/internal/service"

// AttributionHandler 归因 HTTP 处理器
type AttributionHandler struct {
	attributionService *service.AttributionService
}

// NewAttributionHandler 创建归因处理器实例
func NewAttributionHandler(attributionService *service.AttributionService) *AttributionHandler {
	return &AttributionHandler{
		attributionService: attributionService,
	}
}
