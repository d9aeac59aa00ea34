package attribution

import (
	"github.com/gin-gonic/gin"

	"bluecrm/attribsync/internal/server/apimodel/response"
	"bluecrm/attribsync/internal/server/middlewares"
	"bluecrm/attribsync/pkg/ginx"
)

// Get 查询订单归因结果
// GET /api/v1/orders/:key/attribution
func (h *AttributionHandler) Get(c *gin.Context) {
	orderKey := c.Param("key")
	tenantID := middlewares.TenantID(c)

	order, err := h.attributionService.GetAttribution(c.Request.Context(), tenantID, orderKey)
	if err != nil {
		ginx.InternalError(c, err.Error())
		return
	}
	if order == nil {
		ginx.NotFound(c, "order not found")
		return
	}

	ginx.Success(c, response.FromOrder(order))
}
