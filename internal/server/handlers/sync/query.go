package sync

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"bluecrm/attribsync/internal/server/apimodel/response"
	"bluecrm/attribsync/internal/server/middlewares"
	"bluecrm/attribsync/pkg/ginx"
)

// Get 查询单条同步记录
// GET /api/v1/sync/:id
func (h *SyncHandler) Get(c *gin.Context) {
	run, err := h.syncService.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		ginx.InternalError(c, err.Error())
		return
	}
	if run == nil {
		ginx.NotFound(c, "sync run not found")
		return
	}

	ginx.Success(c, response.FromSyncRun(run))
}

// Latest 查询最新同步状态
// GET /api/v1/sync/latest
func (h *SyncHandler) Latest(c *gin.Context) {
	tenantID := middlewares.TenantID(c)

	run, err := h.syncService.Latest(c.Request.Context(), tenantID)
	if err != nil {
		ginx.InternalError(c, err.Error())
		return
	}
	if run == nil {
		ginx.NotFound(c, "no sync run yet")
		return
	}

	ginx.Success(c, response.FromSyncRun(run))
}

// History 分页查询同步历史
// GET /api/v1/sync/history?page=1&limit=20
func (h *SyncHandler) History(c *gin.Context) {
	tenantID := middlewares.TenantID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	runs, total, err := h.syncService.History(c.Request.Context(), tenantID, page, limit)
	if err != nil {
		ginx.InternalError(c, err.Error())
		return
	}

	ginx.Success(c, response.FromSyncRuns(runs, total, page, limit))
}
