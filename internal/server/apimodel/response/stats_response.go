package response

import (
	"bluecrm/attribsync/internal/entity"
)

// StatsSummaryResponse 周期汇总响应（DTO）
type StatsSummaryResponse struct {
	PeriodType   string `json:"periodType"`
	PeriodValue  string `json:"periodValue"`
	TotalOrders  int64  `json:"totalOrders"`
	TotalRevenue string `json:"totalRevenue"`
}

// BreakdownResponse 分布统计响应（DTO）
type BreakdownResponse struct {
	Dimension  string `json:"dimension"`
	Label      string `json:"label"`
	OrderCount int64  `json:"orderCount"`
	Amount     string `json:"amount"`
}

// FromStats 转换周期汇总列表
func FromStats(rows []*entity.SyncStats) []*StatsSummaryResponse {
	items := make([]*StatsSummaryResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, &StatsSummaryResponse{
			PeriodType:   row.PeriodType,
			PeriodValue:  row.PeriodValue,
			TotalOrders:  row.TotalOrders,
			TotalRevenue: row.TotalRevenue.StringFixed(2),
		})
	}
	return items
}

// FromBreakdowns 转换分布统计列表
func FromBreakdowns(rows []*entity.StatBreakdown) []*BreakdownResponse {
	items := make([]*BreakdownResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, &BreakdownResponse{
			Dimension:  row.Dimension,
			Label:      row.Label,
			OrderCount: row.OrderCount,
			Amount:     row.Amount.StringFixed(2),
		})
	}
	return items
}
