package request

import (
	"fmt"
	"time"

	"bluecrm/attribsync/internal/syncer"
)

// TriggerSyncRequest 同步触发请求
// 参数支持 query 或 JSON 请求体两种形式，日期采用 2006-01-02 格式，
// endDate 必须不早于 startDate
type TriggerSyncRequest struct {
	FullSync  bool   `json:"fullSync" form:"fullSync"`
	StartDate string `json:"startDate" form:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"endDate" form:"endDate" binding:"omitempty,datetime=2006-01-02"`
}

// ToOptions 转换为同步参数
func (r *TriggerSyncRequest) ToOptions(triggeredBy string) (syncer.Options, error) {
	opts := syncer.Options{
		FullSync:    r.FullSync,
		TriggeredBy: triggeredBy,
	}

	if r.StartDate != "" {
		t, err := time.Parse("2006-01-02", r.StartDate)
		if err != nil {
			return opts, fmt.Errorf("invalid startDate: %w", err)
		}
		opts.StartDate = &t
	}

	if r.EndDate != "" {
		t, err := time.Parse("2006-01-02", r.EndDate)
		if err != nil {
			return opts, fmt.Errorf("invalid endDate: %w", err)
		}
		// 日期范围取闭区间，结束日推进到当日末尾
		end := t.Add(24*time.Hour - time.Nanosecond)
		opts.EndDate = &end
	}

	if opts.StartDate != nil && opts.EndDate != nil && opts.EndDate.Before(*opts.StartDate) {
		return opts, fmt.Errorf("endDate must not be before startDate")
	}

	return opts, nil
}
