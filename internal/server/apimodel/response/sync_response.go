package response

import (
	"encoding/json"
	"time"

	"bluecrm/attribsync/internal/entity"
)

// SyncRunResponse 同步记录响应（DTO）
type SyncRunResponse struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	FullSync      bool            `json:"fullSync"`
	TriggeredBy   string          `json:"triggeredBy"`
	TotalRecords  int             `json:"totalRecords"`
	OrderCount    int             `json:"orderCount"`
	ProductCount  int             `json:"productCount"`
	CustomerCount int             `json:"customerCount"`
	ErrorCount    int             `json:"errorCount"`
	Details       json.RawMessage `json:"details,omitempty"`
	StartedAt     time.Time       `json:"startedAt"`
	FinishedAt    *time.Time      `json:"finishedAt,omitempty"`
	DurationMs    int64           `json:"durationMs"`
}

// FromSyncRun 转换同步记录实体
func FromSyncRun(run *entity.SyncRun) *SyncRunResponse {
	if run == nil {
		return nil
	}
	return &SyncRunResponse{
		ID:            run.ID,
		Status:        run.Status,
		FullSync:      run.FullSync,
		TriggeredBy:   run.TriggeredBy,
		TotalRecords:  run.TotalRecords,
		OrderCount:    run.OrderCount,
		ProductCount:  run.ProductCount,
		CustomerCount: run.CustomerCount,
		ErrorCount:    run.ErrorCount,
		Details:       json.RawMessage(run.Details),
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
		DurationMs:    run.DurationMs,
	}
}

// SyncHistoryResponse 同步历史分页响应（DTO）
type SyncHistoryResponse struct {
	Items []*SyncRunResponse `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// FromSyncRuns 转换同步记录列表
func FromSyncRuns(runs []*entity.SyncRun, total int64, page, limit int) *SyncHistoryResponse {
	items := make([]*SyncRunResponse, 0, len(runs))
	for _, run := range runs {
		items = append(items, FromSyncRun(run))
	}
	return &SyncHistoryResponse{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}
}
