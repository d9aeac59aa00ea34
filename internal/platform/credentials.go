package platform

import (
	"encoding/json"
	"fmt"

	"bluecrm/attribsync/internal/entity"
)

// Provider 平台提供方标识
type Provider string

const (
	ProviderWbuy           Provider = NameWbuy
	ProviderActiveCampaign Provider = NameActiveCampaign
	ProviderGA4            Provider = NameGA4
	ProviderStape          Provider = NameStape
)

// Credentials 平台凭证（按 Provider 区分必填字段的 tagged union）
type Credentials struct {
	Provider  Provider
	APIURL    string
	APIKey    string
	APISecret string
	StoreID   string
	// PropertyID GA4 专用
	PropertyID string
}

// Validate 按 Provider 校验必填字段
func (c Credentials) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("%s: api_url is required", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%s: api_key is required", c.Provider)
	}

	switch c.Provider {
	case ProviderWbuy:
		if c.APISecret == "" {
			return fmt.Errorf("wbuy: api_secret is required")
		}
		if c.StoreID == "" {
			return fmt.Errorf("wbuy: store_id is required")
		}
	case ProviderGA4:
		if c.PropertyID == "" {
			return fmt.Errorf("ga4: property_id is required")
		}
	case ProviderActiveCampaign, ProviderStape:
		// 仅需 api_url + api_key
	default:
		return fmt.Errorf("unknown provider: %s", c.Provider)
	}

	return nil
}

// CredentialSet 按 Provider 索引的凭证集合
type CredentialSet map[Provider]Credentials

// credentialExtra 凭证行 extra 列的结构
type credentialExtra struct {
	PropertyID string `json:"property_id"`
}

// FromRow 将凭证行转换为校验过的 Credentials
func FromRow(row *entity.PlatformCredential) (Credentials, error) {
	creds := Credentials{
		Provider:  Provider(row.Provider),
		APIURL:    row.APIURL,
		APIKey:    row.APIKey,
		APISecret: row.APISecret,
		StoreID:   row.StoreID,
	}

	if len(row.Extra) > 0 {
		var extra credentialExtra
		if err := json.Unmarshal(row.Extra, &extra); err != nil {
			return Credentials{}, fmt.Errorf("%s: invalid extra config: %w", row.Provider, err)
		}
		creds.PropertyID = extra.PropertyID
	}

	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}

	return creds, nil
}

// BuildSet 将凭证行列表转换为 CredentialSet
// 单行无效会使整个加载失败（配置错误应显式暴露，而不是静默跳过平台）
func BuildSet(rows []entity.PlatformCredential) (CredentialSet, error) {
	set := make(CredentialSet, len(rows))
	for i := range rows {
		creds, err := FromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		set[creds.Provider] = creds
	}
	return set, nil
}
