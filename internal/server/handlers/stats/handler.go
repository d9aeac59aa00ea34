package stats

import (
	"github.com/gin-gonic/gin"

	"bluecrm/attribsync/internal/entity"
	"bluecrm/attribsync/internal/server/apimodel/response"
	"bluecrm/attribsync/internal/server/middlewares"
	"bluecrm/attribsync/internal/service"
	"bluecrm/attribsync/pkg/ginx"
)

// StatsHandler 统计 HTTP 处理器
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler 创建统计处理器实例
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// Summaries 查询周期汇总
// GET /api/v1/stats?period=month
func (h *StatsHandler) Summaries(c *gin.Context) {
	periodType := c.DefaultQuery("period", entity.PeriodTypeMonth)
	if !validPeriod(periodType) {
		ginx.BadRequest(c, "period must be one of: year, month, day")
		return
	}

	tenantID := middlewares.TenantID(c)
	rows, err := h.statsService.Summaries(c.Request.Context(), tenantID, periodType)
	if err != nil {
		ginx.InternalError(c, err.Error())
		return
	}

	ginx.Success(c, response.FromStats(rows))
}

// Breakdowns 查询分布统计
// GET /api/v1/stats/breakdowns?period=month&value=2026-08&dimension=product
func (h *StatsHandler) Breakdowns(c *gin.Context) {
	periodType := c.DefaultQuery("period", entity.PeriodTypeMonth)
	if !validPeriod(periodType) {
		ginx.BadRequest(c, "period must be one of: year, month, day")
		return
	}

	periodValue := c.Query("value")
	if periodValue == "" {
		ginx.BadRequest(c, "value is required")
		return
	}

	dimension := c.DefaultQuery("dimension", entity.DimensionProduct)
	if dimension != entity.DimensionProduct &&
		dimension != entity.DimensionPaymentMethod &&
		dimension != entity.DimensionAffiliate {
		ginx.BadRequest(c, "dimension must be one of: product, payment_method, affiliate")
		return
	}

	tenantID := middlewares.TenantID(c)
	rows, err := h.statsService.Breakdowns(c.Request.Context(), tenantID, periodType, periodValue, dimension)
	if err != nil {
		ginx.InternalError(c, err.Error())
		return
	}

	ginx.Success(c, response.FromBreakdowns(rows))
}

func validPeriod(periodType string) bool {
	return periodType == entity.PeriodTypeYear ||
		periodType == entity.PeriodTypeMonth ||
		periodType == entity.PeriodTypeDay
}
