package attributionjob

import (
	"context"
	"encoding/json"
	"errors"

	"bluecrm/attribsync/internal/correlation"
	"bluecrm/attribsync/internal/entity"
	"bluecrm/attribsync/internal/framework"
	"bluecrm/attribsync/internal/jobs/common"
	"bluecrm/attribsync/internal/notify"
	"bluecrm/attribsync/internal/platform"
	"bluecrm/attribsync/internal/refine"
	"bluecrm/attribsync/pkg/errorutil"
)

// Payload 归因 Job 业务数据
type Payload struct {
	OrderKey string `json:"order_key"`
}

// TrackingData 跨平台数据 + 确定性摘要
type TrackingData struct {
	Record  *platform.CrossPlatformRecord `json:"record"`
	Summary *correlation.Summary          `json:"summary"`
}

// Output 归因 Job 输出
type Output struct {
	TrackingData *TrackingData   `json:"trackingData"`
	AIAnalysis   *refine.Verdict `json:"aiAnalysis,omitempty"`
	Warnings     []string        `json:"warnings,omitempty"`
}

// Handler 单笔订单归因处理器
// 流程：凭证 -> 平台客户端 -> 跨平台汇集 -> 确定性关联 -> 可选 AI 精炼 -> 落库 + 通知
type Handler struct {
	framework.BaseHandler

	payload *Payload
	deps    *common.Deps

	record   *platform.CrossPlatformRecord
	summary  *correlation.Summary
	verdict  *refine.Verdict
	warnings []string
}

// NewHandler 创建归因处理器
func NewHandler(ctx context.Context, baseHandler *framework.BaseHandler, deps *common.Deps) (framework.BusinessHandler, error) {
	payloadBytes, err := json.Marshal(baseHandler.GetBizPayload())
	if err != nil {
		return nil, err
	}

	var payload Payload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return nil, err
	}

	if payload.OrderKey == "" {
		payload.OrderKey = baseHandler.GetMeta().ID
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
	if h.payload.OrderKey == "" {
		return errors.New("order_key is required")
	}
	if h.GetMeta().TenantID == "" {
		return errors.New("tenant_id is required")
	}
	return nil
}

// Process 核心处理
func (h *Handler) Process(ctx context.Context) error {
	tenantID := h.GetMeta().TenantID

	// 1. 加载凭证并构造平台客户端（仅本次处理内持有）
	rows, err := h.deps.Creds.ListByTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	set, err := platform.BuildSet(rows)
	if err != nil {
		return err
	}
	clients := platform.NewClientSet(set, h.deps.PageSize, h.deps.HTTPTimeout)

	// 2. 跨平台数据汇集（辅助平台不可达降级为警告）
	record, warnings, err := h.deps.Collector.Assemble(ctx, clients, h.payload.OrderKey)
	if err != nil {
		return err
	}
	h.record = record
	h.warnings = warnings

	// 3. 订单平台无此订单：标记本地记录失败后返回不可重试错误
	if record.Wbuy == nil {
		h.markFailed(ctx, tenantID)
		return errorutil.NotFound(platform.NameWbuy, h.payload.OrderKey)
	}

	// 4. 确定性关联
	h.summary = correlation.Analyze(record, h.deps.CorrelationCfg)

	// 5. 可选 AI 精炼：失败只降级为警告，摘要照常落库
	if h.deps.Refiner != nil && h.deps.Refiner.Enabled() {
		verdict, err := h.deps.Refiner.Refine(ctx, record, h.summary)
		if err != nil {
			h.deps.Log.Warnf(ctx, "[Attribution] AI refinement unavailable for %s: %v", h.payload.OrderKey, err)
			h.warnings = append(h.warnings, "ai refinement unavailable")
		} else {
			h.verdict = verdict
		}
	}

	// 6. 归因结果落库（本地无此订单时跳过，分析结果仍然返回）
	order, err := h.deps.Orders.GetByOrderKey(ctx, tenantID, h.payload.OrderKey)
	if err != nil {
		return err
	}
	if order != nil {
		if err := h.deps.Orders.UpdateAttribution(ctx, order.ID, entity.AttributionStatusAnalyzed, h.summary, h.verdict); err != nil {
			return err
		}
	} else {
		h.deps.Log.Infof(ctx, "[Attribution] Order %s not synced locally, skip persistence", h.payload.OrderKey)
	}

	return nil
}

// PostProcess 后处理：格式化输出 + 完成通知
func (h *Handler) PostProcess(ctx context.Context) error {
	err := h.GetResulter().Set(ctx, &Output{
		TrackingData: &TrackingData{Record: h.record, Summary: h.summary},
		AIAnalysis:   h.verdict,
		Warnings:     h.warnings,
	})
	if err != nil {
		return err
	}

	h.SetOutput(h.GetResulter().Get(ctx))

	return h.sendNotification(ctx)
}

// markFailed 将本地订单标记为归因失败（本地无记录时静默跳过）
func (h *Handler) markFailed(ctx context.Context, tenantID string) {
	order, err := h.deps.Orders.GetByOrderKey(ctx, tenantID, h.payload.OrderKey)
	if err != nil || order == nil {
		return
	}
	if err := h.deps.Orders.UpdateAttribution(ctx, order.ID, entity.AttributionStatusFailed, nil, nil); err != nil {
		h.deps.Log.Warnf(ctx, "[Attribution] Mark order %s failed error: %v", h.payload.OrderKey, err)
	}
}

// sendNotification 发布归因完成通知，失败只记日志
func (h *Handler) sendNotification(ctx context.Context) error {
	if h.deps.Notifier == nil {
		return nil
	}

	confidence := 0
	if h.summary != nil {
		confidence = h.summary.Confidence
	}

	err := h.deps.Notifier.PublishAttribution(ctx, &notify.AttributionNotification{
		TenantID:   h.GetMeta().TenantID,
		OrderKey:   h.payload.OrderKey,
		Status:     entity.AttributionStatusAnalyzed,
		Confidence: confidence,
	})
	if err != nil {
		h.deps.Log.Warnf(ctx, "[Attribution] Publish notification failed: %v", err)
	}
	return nil
}
