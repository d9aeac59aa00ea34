package syncjob

import (
	"context"
	"time"
)

// Resulter 同步结果处理器
type Resulter struct {
	dstData interface{}
}

// NewResulter 创建同步结果处理器
func NewResulter() *Resulter {
	return &Resulter{}
}

// Set 设置业务结果数据
func (r *Resulter) Set(ctx context.Context, data interface{}) error {
	syncID := data.(string)

	r.dstData = &Output{
		SyncID:      syncID,
		ProcessedAt: time.Now().Unix(),
	}

	return nil
}

// Get 获取格式化后的输出
func (r *Resulter) Get(ctx context.Context) interface{} {
	return r.dstData
}
