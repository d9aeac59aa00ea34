package response

import (
	"encoding/json"
	"time"

	"bluecrm/attribsync/internal/entity"
)

// AttributionResponse 订单归因结果响应（DTO）
type AttributionResponse struct {
	OrderKey     string          `json:"orderKey"`
	OrderCode    string          `json:"orderCode,omitempty"`
	Status       string          `json:"status"`
	Summary      json.RawMessage `json:"summary,omitempty"`
	AIVerdict    json.RawMessage `json:"aiVerdict,omitempty"`
	AttributedAt *time.Time      `json:"attributedAt,omitempty"`
}

// FromOrder 转换订单实体为归因响应
func FromOrder(order *entity.Order) *AttributionResponse {
	if order == nil {
		return nil
	}
	return &AttributionResponse{
		OrderKey:     order.PlatformOrderID,
		OrderCode:    order.OrderCode,
		Status:       order.AttributionStatus,
		Summary:      json.RawMessage(order.AttributionSummary),
		AIVerdict:    json.RawMessage(order.AIVerdict),
		AttributedAt: order.AttributedAt,
	}
}
