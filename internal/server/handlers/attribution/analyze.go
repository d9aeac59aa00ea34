package attribution

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"bluecrm/attribsync/internal/server/apimodel/response"
	"bluecrm/attribsync/internal/server/middlewares"
	"bluecrm/attribsync/internal/service"
	"bluecrm/attribsync/pkg/ginx"
)

// Analyze 触发单笔订单归因分析
// POST /api/v1/orders/:key/attribution?wait=10
func (h *AttributionHandler) Analyze(c *gin.Context) {
	orderKey := c.Param("key")
	if orderKey == "" {
		ginx.BadRequest(c, "order key is required")
		return
	}

	waitSeconds := 0
	if waitStr := c.Query("wait"); waitStr != "" {
		if w, err := strconv.Atoi(waitStr); err == nil && w > 0 {
			waitSeconds = w
		}
	}

	tenantID := middlewares.TenantID(c)
	result, err := h.attributionService.TriggerAnalysis(c.Request.Context(), tenantID, orderKey, waitSeconds)
	if err != nil {
		ginx.InternalError(c, err.Error())
		return
	}

	if result.Status == service.TriggerStatusCompleted && result.Order != nil {
		ginx.Success(c, response.FromOrder(result.Order))
		return
	}

	pollURL := fmt.Sprintf("/api/v1/orders/%s/attribution", orderKey)
	ginx.Processing(c, orderKey, pollURL)
}
