package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bluecrm/attribsync/pkg/config"
)

// SyncNotification 同步完成通知（worker 发布，API Smart Wait 订阅）
type SyncNotification struct {
	SyncID       string `json:"sync_id"`
	TenantID     string `json:"tenant_id"`
	Status       string `json:"status"`
	TotalRecords int    `json:"total_records"`
	ErrorCount   int    `json:"error_count"`
	DurationMs   int64  `json:"duration_ms"`
}

// AttributionNotification 单笔归因完成通知
type AttributionNotification struct {
	TenantID   string `json:"tenant_id"`
	OrderKey   string `json:"order_key"`
	Status     string `json:"status"`
	Confidence int    `json:"confidence"`
}

// Notifier Redis Pub/Sub 通知器
// worker 完成后推送结果，API 侧订阅实现 Smart Wait
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier 创建通知器，支持密码认证
func NewNotifier(cfg config.RedisConfig) (*Notifier, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &Notifier{rdb: rdb}, nil
}

// SyncChannel 同步通知频道：租户维度
func SyncChannel(tenantID string) string {
	return fmt.Sprintf("attribution:sync:%s", tenantID)
}

// AttributionChannel 归因通知频道：租户 + 订单维度
func AttributionChannel(tenantID, orderKey string) string {
	return fmt.Sprintf("attribution:order:%s:%s", tenantID, orderKey)
}

// PublishSync 发布同步完成通知
func (n *Notifier) PublishSync(ctx context.Context, notification *SyncNotification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, SyncChannel(notification.TenantID), string(payload)).Err()
}

// PublishAttribution 发布归因完成通知
func (n *Notifier) PublishAttribution(ctx context.Context, notification *AttributionNotification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, AttributionChannel(notification.TenantID, notification.OrderKey), string(payload)).Err()
}

// WaitForSync 订阅同步频道并等待指定 syncID 的结果，支持超时控制
// 同一租户可能有历史任务的迟到通知，syncID 不匹配时继续等待
func (n *Notifier) WaitForSync(ctx context.Context, tenantID, syncID string, timeout time.Duration) (*SyncNotification, error) {
	sub := n.rdb.Subscribe(ctx, SyncChannel(tenantID))
	defer sub.Close()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		select {
		case msg := <-sub.Channel():
			var notification SyncNotification
			if err := json.Unmarshal([]byte(msg.Payload), &notification); err != nil {
				continue
			}
			if notification.SyncID != syncID {
				continue
			}
			return &notification, nil
		case <-timeoutCtx.Done():
			return nil, timeoutCtx.Err()
		}
	}
}

// WaitForAttribution 订阅归因频道并等待结果，支持超时控制
func (n *Notifier) WaitForAttribution(ctx context.Context, tenantID, orderKey string, timeout time.Duration) (*AttributionNotification, error) {
	sub := n.rdb.Subscribe(ctx, AttributionChannel(tenantID, orderKey))
	defer sub.Close()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case msg := <-sub.Channel():
		var notification AttributionNotification
		if err := json.Unmarshal([]byte(msg.Payload), &notification); err != nil {
			return nil, err
		}
		return &notification, nil
	case <-timeoutCtx.Done():
		return nil, timeoutCtx.Err()
	}
}

// Close 关闭连接
func (n *Notifier) Close() error {
	return n.rdb.Close()
}
