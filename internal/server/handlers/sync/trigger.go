package sync

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"bluecrm/attribsync/internal/server/apimodel/request"
	"bluecrm/attribsync/internal/server/apimodel/response"
	"bluecrm/attribsync/internal/server/middlewares"
	"bluecrm/attribsync/internal/service"
	"bluecrm/attribsync/internal/syncer"
	"bluecrm/attribsync/pkg/errorutil"
	"bluecrm/attribsync/pkg/ginx"
)

// Trigger 触发同步接口
// POST /api/v1/sync?fullSync=true&startDate=2026-01-01&endDate=2026-01-31&wait=10
func (h *SyncHandler) Trigger(c *gin.Context) {
	waitSeconds := 0
	if waitStr := c.Query("wait"); waitStr != "" {
		if w, err := strconv.Atoi(waitStr); err == nil && w > 0 {
			waitSeconds = w
		}
	}

	// 参数先从 query 读取，带请求体时 JSON 字段覆盖
	var req request.TriggerSyncRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			ginx.BadRequestWithValidation(c, err)
			return
		}
	}

	opts, err := req.ToOptions(syncer.TriggeredByManual)
	if err != nil {
		ginx.BadRequest(c, err.Error())
		return
	}

	tenantID := middlewares.TenantID(c)
	result, err := h.syncService.TriggerSync(c.Request.Context(), tenantID, opts, waitSeconds)
	if err != nil {
		if errorutil.IsSyncConflict(err) {
			message := "sync already in progress"
			if result != nil && result.SyncID != "" {
				message = fmt.Sprintf("sync already in progress: %s", result.SyncID)
			}
			ginx.Conflict(c, message)
			return
		}
		ginx.InternalError(c, err.Error())
		return
	}

	if result.Status == service.TriggerStatusCompleted && result.Run != nil {
		ginx.Success(c, response.FromSyncRun(result.Run))
		return
	}

	pollURL := fmt.Sprintf("/api/v1/sync/%s", result.SyncID)
	ginx.Processing(c, result.SyncID, pollURL)
}
