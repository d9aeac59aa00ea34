package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"bluecrm/attribsync/pkg/errorutil"
)

// GA4Client 站点分析平台客户端（客户端会话/渠道数据）
type GA4Client struct {
	api        *apiClient
	propertyID string
}

// NewGA4Client 创建站点分析平台客户端（Bearer 认证）
func NewGA4Client(creds Credentials, timeout time.Duration) *GA4Client {
	headers := map[string]string{
		"Authorization": "Bearer " + creds.APIKey,
	}
	return &GA4Client{
		api:        newAPIClient(NameGA4, creds.APIURL, headers, timeout),
		propertyID: creds.PropertyID,
	}
}

type ga4Attribution struct {
	ClientID    string `json:"client_id"`
	FirstSource string `json:"first_source"`
	FirstMedium string `json:"first_medium"`
	LastSource  string `json:"last_source"`
	LastMedium  string `json:"last_medium"`
	Sessions    int    `json:"sessions"`
}

// FetchByOrderKey 按交易号查询会话归因数据
func (c *GA4Client) FetchByOrderKey(ctx context.Context, key string) (*AnalyticsRecord, error) {
	params := url.Values{}
	params.Set("transaction_id", key)

	path := "/v1/properties/" + url.PathEscape(c.propertyID) + "/attribution"
	body, found, err := c.api.get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var raw ga4Attribution
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errorutil.PlatformUnavailable(NameGA4, fmt.Errorf("malformed attribution payload: %w", err))
	}

	return &AnalyticsRecord{
		ClientID:    raw.ClientID,
		FirstSource: raw.FirstSource,
		FirstMedium: raw.FirstMedium,
		LastSource:  raw.LastSource,
		LastMedium:  raw.LastMedium,
		Sessions:    raw.Sessions,
		Raw:         body,
	}, nil
}
