package platform

import "time"

// ClientSet 一次操作范围内的平台客户端集合
// 每次同步/归因操作从租户凭证现场构建，操作结束即丢弃，凭证不跨操作缓存
type ClientSet struct {
	Wbuy           *WbuyClient
	ActiveCampaign *ActiveCampaignClient
	GA4            *GA4Client
	Stape          *StapeClient
}

// NewClientSet 按凭证集合构建客户端（缺少凭证的平台槽位为 nil）
func NewClientSet(set CredentialSet, pageSize int, timeout time.Duration) *ClientSet {
	cs := &ClientSet{}

	if creds, ok := set[ProviderWbuy]; ok {
		cs.Wbuy = NewWbuyClient(creds, pageSize, timeout)
	}
	if creds, ok := set[ProviderActiveCampaign]; ok {
		cs.ActiveCampaign = NewActiveCampaignClient(creds, timeout)
	}
	if creds, ok := set[ProviderGA4]; ok {
		cs.GA4 = NewGA4Client(creds, timeout)
	}
	if creds, ok := set[ProviderStape]; ok {
		cs.Stape = NewStapeClient(creds, timeout)
	}

	return cs
}
