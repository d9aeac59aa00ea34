package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"bluecrm/attribsync/pkg/errorutil"
)

// StapeClient 服务端埋点平台客户端
// 服务端转发的转化事件受广告拦截影响小，信号可信度高于客户端分析
type StapeClient struct {
	api *apiClient
}

// NewStapeClient 创建埋点平台客户端（X-Api-Key 认证）
func NewStapeClient(creds Credentials, timeout time.Duration) *StapeClient {
	headers := map[string]string{
		"X-Api-Key": creds.APIKey,
	}
	return &StapeClient{
		api: newAPIClient(NameStape, creds.APIURL, headers, timeout),
	}
}

type stapeOrderEvents struct {
	FirstReferrer string `json:"first_referrer"`
	LastReferrer  string `json:"last_referrer"`
	AffiliateCode string `json:"affiliate_code"`
	EventCount    int    `json:"event_count"`
}

// FetchByOrderKey 按订单号查询该订单关联的事件序列摘要
func (c *StapeClient) FetchByOrderKey(ctx context.Context, key string) (*TaggingRecord, error) {
	body, found, err := c.api.get(ctx, "/v2/events/orders/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var raw stapeOrderEvents
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errorutil.PlatformUnavailable(NameStape, fmt.Errorf("malformed events payload: %w", err))
	}

	return &TaggingRecord{
		FirstReferrer: raw.FirstReferrer,
		LastReferrer:  raw.LastReferrer,
		AffiliateCode: raw.AffiliateCode,
		EventCount:    raw.EventCount,
		Raw:           body,
	}, nil
}
