package attributionjob

import "context"

// Resulter 归因结果处理器
type Resulter struct {
	srcData interface{}
	dstData interface{}
}

// NewResulter 创建归因结果处理器
func NewResulter() *Resulter {
	return &Resulter{}
}

// Set 设置业务结果数据
func (r *Resulter) Set(ctx context.Context, data interface{}) error {
	r.srcData = data
	r.dstData = data.(*Output)
	return nil
}

// Get 获取格式化后的输出
func (r *Resulter) Get(ctx context.Context) interface{} {
	return r.dstData
}
