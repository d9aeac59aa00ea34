package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"bluecrm/attribsync/internal/entity"
	"bluecrm/attribsync/internal/framework"
	"bluecrm/attribsync/internal/jobs"
	"bluecrm/attribsync/internal/notify"
	"bluecrm/attribsync/pkg/logger"
)

// AttributionOrderStore 归因查询的订单存储依赖
type AttributionOrderStore interface {
	GetByOrderKey(ctx context.Context, tenantID, orderKey string) (*entity.Order, error)
}

// AttributionWaiter 归因 Smart Wait 依赖
type AttributionWaiter interface {
	WaitForAttribution(ctx context.Context, tenantID, orderKey string, timeout time.Duration) (*notify.AttributionNotification, error)
}

// AttributionService 归因服务，负责触发单笔分析与结果查询
type AttributionService struct {
	orders    AttributionOrderStore
	publisher JobPublisher
	waiter    AttributionWaiter
	queueName string
	log       logger.Logger
}

// NewAttributionService 创建归因服务实例
func NewAttributionService(
	orders AttributionOrderStore,
	publisher JobPublisher,
	waiter AttributionWaiter,
	queueName string,
	log logger.Logger,
) *AttributionService {
	return &AttributionService{
		orders:    orders,
		publisher: publisher,
		waiter:    waiter,
		queueName: queueName,
		log:       log,
	}
}

// AttributionTriggerResult 归因触发结果
type AttributionTriggerResult struct {
	Status string
	Order  *entity.Order // Smart Wait 命中时填充分析后的订单
}

// TriggerAnalysis 触发单笔订单归因
// 发布 Job 后可选等待完成通知，命中则直接返回分析后的订单
func (s *AttributionService) TriggerAnalysis(ctx context.Context, tenantID, orderKey string, waitSeconds int) (*AttributionTriggerResult, error) {
	if err := s.publishAnalysisJob(ctx, tenantID, orderKey); err != nil {
		return nil, err
	}

	if waitSeconds > 0 {
		timeout := time.Duration(waitSeconds) * time.Second
		_, err := s.waiter.WaitForAttribution(ctx, tenantID, orderKey, timeout)
		if err != nil {
			s.log.Warnf(ctx, "[AttributionService] Wait for attribution failed: order_key=%s, error=%v", orderKey, err)
			return &AttributionTriggerResult{Status: TriggerStatusProcessing}, nil
		}

		order, err := s.orders.GetByOrderKey(ctx, tenantID, orderKey)
		if err != nil {
			return nil, err
		}
		return &AttributionTriggerResult{Status: TriggerStatusCompleted, Order: order}, nil
	}

	return &AttributionTriggerResult{Status: TriggerStatusProcessing}, nil
}

// GetAttribution 查询订单的归因结果（本地记录）
func (s *AttributionService) GetAttribution(ctx context.Context, tenantID, orderKey string) (*entity.Order, error) {
	return s.orders.GetByOrderKey(ctx, tenantID, orderKey)
}

// publishAnalysisJob 构造标准化消息并发布
func (s *AttributionService) publishAnalysisJob(ctx context.Context, tenantID, orderKey string) error {
	message := framework.Job{
		Payload: &framework.JobPayload{
			Data: &framework.JobPayloadData{
				RequestID:  uuid.New().String(),
				ActionType: jobs.ActionOrderAttribution,
				TenantID:   tenantID,
				ID:         orderKey,
				Data: map[string]interface{}{
					"order_key": orderKey,
				},
			},
		},
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return s.publisher.Publish(s.queueName, payload, 3600, 0)
}
