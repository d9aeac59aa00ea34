package syncjob

import (
	"context"
	"encoding/json"
	"errors"

	"bluecrm/attribsync/internal/framework"
	"bluecrm/attribsync/internal/jobs/common"
)

// Payload 同步 Job 业务数据
type Payload struct {
	SyncID string `json:"sync_id"`
}

// Output 同步 Job 输出
type Output struct {
	SyncID      string `json:"sync_id"`
	ProcessedAt int64  `json:"processed_at"`
}

// Handler 同步执行处理器
// 真正的同步编排在 SyncExecutor 内完成，这里负责解包、校验与结果上报
type Handler struct {
	framework.BaseHandler

	payload *Payload
	deps    *common.Deps
}

// NewHandler 创建同步执行处理器
func NewHandler(ctx context.Context, baseHandler *framework.BaseHandler, deps *common.Deps) (framework.BusinessHandler, error) {
	payloadBytes, err := json.Marshal(baseHandler.GetBizPayload())
	if err != nil {
		return nil, err
	}

	var payload Payload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return nil, err
	}

	// 业务 ID 槽位兜底：发布方可能只填 meta.id
	if payload.SyncID == "" {
		payload.SyncID = baseHandler.GetMeta().ID
	}

	handler := &Handler{
		BaseHandler: *baseHandler,
		payload:     &payload,
		deps:        deps,
	}

	handler.SetResulter(NewResulter())

	return handler, nil
}

// Handle 处理入口
func (h *Handler) Handle(ctx context.Context) ([]byte, error) {
	processFuncs := []framework.ProcessorFunc{
		h.PreProcess,
		h.Process,
		h.PostProcess,
	}

	preProcessor := framework.NewPreProcessor(processFuncs)
	if err := preProcessor.Run(ctx); err != nil {
		data, wrapErr := h.WrapErrorResponse(ctx, err)
		if wrapErr != nil {
			return nil, wrapErr
		}
		return data, err
	}

	output := h.GetOutput()
	return h.WrapResponse(ctx, output)
}

// PreProcess 预处理
func (h *Handler) PreProcess(ctx context.Context) error {
	if h.payload.SyncID == "" {
		return errors.New("sync_id is required")
	}
	if h.GetMeta().TenantID == "" {
		return errors.New("tenant_id is required")
	}
	return nil
}

// Process 核心处理
func (h *Handler) Process(ctx context.Context) error {
	return h.deps.Syncer.Execute(ctx, h.payload.SyncID)
}

// PostProcess 后处理
func (h *Handler) PostProcess(ctx context.Context) error {
	if err := h.GetResulter().Set(ctx, h.payload.SyncID); err != nil {
		return err
	}

	h.SetOutput(h.GetResulter().Get(ctx))
	return nil
}
