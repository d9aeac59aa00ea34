package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bluecrm/attribsync/internal/entity"
	"bluecrm/attribsync/internal/framework"
	"bluecrm/attribsync/internal/jobs"
	"bluecrm/attribsync/internal/notify"
	"bluecrm/attribsync/internal/syncer"
	"bluecrm/attribsync/pkg/errorutil"
	"bluecrm/attribsync/pkg/logger"
)

// SyncStarter 同步触发依赖
type SyncStarter interface {
	StartSync(ctx context.Context, tenantID string, opts syncer.Options) (*syncer.StartResult, error)
}

// SyncRunStore 同步记录查询依赖
type SyncRunStore interface {
	GetByID(ctx context.Context, runID string) (*entity.SyncRun, error)
	GetLatest(ctx context.Context, tenantID string) (*entity.SyncRun, error)
	ListHistory(ctx context.Context, tenantID string, page, limit int) ([]*entity.SyncRun, int64, error)
	Update(ctx context.Context, runID string, updates map[string]interface{}) error
}

// JobPublisher 队列发布依赖
type JobPublisher interface {
	Publish(queue string, data []byte, ttl, delay uint32) error
}

// SyncWaiter Smart Wait 依赖
type SyncWaiter interface {
	WaitForSync(ctx context.Context, tenantID, syncID string, timeout time.Duration) (*notify.SyncNotification, error)
}

// TriggerStatus 触发结果状态
const (
	TriggerStatusCompleted  = "completed"
	TriggerStatusProcessing = "processing"
)

// TriggerResult 同步触发结果
type TriggerResult struct {
	Status string
	SyncID string
	Run    *entity.SyncRun // Smart Wait 命中或同步已结束时填充
}

// SyncService 同步服务，负责触发编排与历史查询
type SyncService struct {
	starter   SyncStarter
	runs      SyncRunStore
	publisher JobPublisher
	waiter    SyncWaiter
	queueName string
	log       logger.Logger
}

// NewSyncService 创建同步服务实例
func NewSyncService(
	starter SyncStarter,
	runs SyncRunStore,
	publisher JobPublisher,
	waiter SyncWaiter,
	queueName string,
	log logger.Logger,
) *SyncService {
	return &SyncService{
		starter:   starter,
		runs:      runs,
		publisher: publisher,
		waiter:    waiter,
		queueName: queueName,
		log:       log,
	}
}

// TriggerSync 触发同步（完整业务流程）
// 1. 冲突检查 + 创建 running 记录
// 2. 发布同步 Job 到队列
// 3. Smart Wait（可选，等待 worker 推送完成通知）
func (s *SyncService) TriggerSync(ctx context.Context, tenantID string, opts syncer.Options, waitSeconds int) (*TriggerResult, error) {
	result, err := s.starter.StartSync(ctx, tenantID, opts)
	if err != nil {
		if errorutil.IsSyncConflict(err) && result != nil {
			return &TriggerResult{Status: TriggerStatusProcessing, SyncID: result.SyncID}, err
		}
		return nil, err
	}

	// 2. 发布到同步队列
	if err := s.publishSyncJob(ctx, tenantID, result.SyncID); err != nil {
		// 发布失败必须终结刚创建的记录，否则租户被僵尸任务锁死
		s.log.Errorf(ctx, "[SyncService] Publish sync job failed: %v", err)
		s.failRun(ctx, result.SyncID, fmt.Sprintf("enqueue failed: %v", err))
		return nil, fmt.Errorf("enqueue sync job failed: %w", err)
	}

	// 3. Smart Wait（等待同步结果）
	if waitSeconds > 0 {
		timeout := time.Duration(waitSeconds) * time.Second
		notification, err := s.waiter.WaitForSync(ctx, tenantID, result.SyncID, timeout)
		if err != nil {
			// 超时或订阅失败，降级为轮询模式
			s.log.Warnf(ctx, "[SyncService] Wait for sync result failed: sync_id=%s, error=%v", result.SyncID, err)
			return &TriggerResult{Status: TriggerStatusProcessing, SyncID: result.SyncID}, nil
		}

		run, err := s.runs.GetByID(ctx, notification.SyncID)
		if err != nil {
			return nil, err
		}
		return &TriggerResult{Status: TriggerStatusCompleted, SyncID: result.SyncID, Run: run}, nil
	}

	return &TriggerResult{Status: TriggerStatusProcessing, SyncID: result.SyncID}, nil
}

// GetRun 查询单条同步记录
func (s *SyncService) GetRun(ctx context.Context, runID string) (*entity.SyncRun, error) {
	return s.runs.GetByID(ctx, runID)
}

// Latest 查询租户最新一条同步记录
func (s *SyncService) Latest(ctx context.Context, tenantID string) (*entity.SyncRun, error) {
	return s.runs.GetLatest(ctx, tenantID)
}

// History 分页查询同步历史
func (s *SyncService) History(ctx context.Context, tenantID string, page, limit int) ([]*entity.SyncRun, int64, error) {
	return s.runs.ListHistory(ctx, tenantID, page, limit)
}

// publishSyncJob 构造标准化消息并发布
func (s *SyncService) publishSyncJob(ctx context.Context, tenantID, syncID string) error {
	message := framework.Job{
		Payload: &framework.JobPayload{
			Data: &framework.JobPayloadData{
				RequestID:  uuid.New().String(),
				ActionType: jobs.ActionAttributionSync,
				TenantID:   tenantID,
				ID:         syncID,
				Data: map[string]interface{}{
					"sync_id": syncID,
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

// failRun 将刚创建的同步记录标记为失败
func (s *SyncService) failRun(ctx context.Context, syncID, reason string) {
	details, _ := json.Marshal(syncer.RunDetails{Summary: reason})
	now := time.Now()
	err := s.runs.Update(ctx, syncID, map[string]interface{}{
		"status":      entity.SyncStatusFailed,
		"details":     details,
		"error_count": 1,
		"finished_at": now,
		"updated_at":  now,
	})
	if err != nil {
		s.log.Errorf(ctx, "[SyncService] Mark run %s failed error: %v", syncID, err)
	}
}
