package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"bluecrm/attribsync/pkg/errorutil"
)

// ActiveCampaignClient 邮件营销平台客户端
// 按客户邮箱查询联系人的活动/触达历史（不是按订单号）
type ActiveCampaignClient struct {
	api *apiClient
}

// NewActiveCampaignClient 创建邮件营销平台客户端（Api-Token 认证）
func NewActiveCampaignClient(creds Credentials, timeout time.Duration) *ActiveCampaignClient {
	headers := map[string]string{
		"Api-Token": creds.APIKey,
	}
	return &ActiveCampaignClient{
		api: newAPIClient(NameActiveCampaign, creds.APIURL, headers, timeout),
	}
}

type acContact struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	FirstSource  string   `json:"first_source"`
	LastCampaign string   `json:"last_campaign"`
	Tags         []string `json:"tags"`
}

type acContactList struct {
	Contacts []acContact `json:"contacts"`
}

// FetchByCustomerKey 按客户邮箱查询联系人记录
func (c *ActiveCampaignClient) FetchByCustomerKey(ctx context.Context, email string) (*EmailRecord, error) {
	params := url.Values{}
	params.Set("email", email)

	body, found, err := c.api.get(ctx, "/api/3/contacts", params)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var list acContactList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, errorutil.PlatformUnavailable(NameActiveCampaign, fmt.Errorf("malformed contact payload: %w", err))
	}

	// 邮箱过滤由平台完成：空列表等同未找到
	if len(list.Contacts) == 0 {
		return nil, nil
	}

	contact := list.Contacts[0]
	raw, _ := json.Marshal(contact)
	return &EmailRecord{
		ContactID:    contact.ID,
		Email:        contact.Email,
		FirstSource:  contact.FirstSource,
		LastCampaign: contact.LastCampaign,
		Tags:         contact.Tags,
		Raw:          raw,
	}, nil
}
