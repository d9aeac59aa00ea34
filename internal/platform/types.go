package platform

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// 平台名称常量（matching_platforms 集合的取值域）
const (
	NameWbuy           = "wbuy"
	NameActiveCampaign = "active_campaign"
	NameGA4            = "ga4"
	NameStape          = "stape"
)

// OrderRecord 订单平台记录
type OrderRecord struct {
	PlatformOrderID string          `json:"platform_order_id"`
	OrderCode       string          `json:"order_code"`
	CustomerEmail   string          `json:"customer_email"`
	Status          string          `json:"status"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   string          `json:"payment_method"`

	// 下单时捕获的引流字段
	UTMSource    string `json:"utm_source,omitempty"`
	UTMMedium    string `json:"utm_medium,omitempty"`
	ReferralCode string `json:"referral_code,omitempty"`

	Items     []LineItem      `json:"items,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// LineItem 订单行项目
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// ProductRecord 商品记录
type ProductRecord struct {
	PlatformProductID string          `json:"platform_product_id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Raw               json.RawMessage `json:"raw,omitempty"`
}

// CustomerRecord 客户记录
type CustomerRecord struct {
	PlatformCustomerID string          `json:"platform_customer_id"`
	Name               string          `json:"name"`
	Email              string          `json:"email"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Raw                json.RawMessage `json:"raw,omitempty"`
}

// EmailRecord 邮件营销平台记录（按客户邮箱查询）
type EmailRecord struct {
	ContactID    string          `json:"contact_id"`
	Email        string          `json:"email"`
	FirstSource  string          `json:"first_source,omitempty"`
	LastCampaign string          `json:"last_campaign,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Raw          json.RawMessage `json:"raw,omitempty"`
}

// AnalyticsRecord 站点分析平台记录
type AnalyticsRecord struct {
	ClientID    string          `json:"client_id"`
	FirstSource string          `json:"first_source,omitempty"`
	FirstMedium string          `json:"first_medium,omitempty"`
	LastSource  string          `json:"last_source,omitempty"`
	LastMedium  string          `json:"last_medium,omitempty"`
	Sessions    int             `json:"sessions"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// TaggingRecord 服务端埋点平台记录
type TaggingRecord struct {
	FirstReferrer string          `json:"first_referrer,omitempty"`
	LastReferrer  string          `json:"last_referrer,omitempty"`
	AffiliateCode string          `json:"affiliate_code,omitempty"`
	EventCount    int             `json:"event_count"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}

// CrossPlatformRecord 单个订单的跨平台数据视图
// 每个平台槽位可为 nil（nil 表示该平台没有匹配记录，不是错误）
type CrossPlatformRecord struct {
	OrderKey       string           `json:"order_key"`
	Wbuy           *OrderRecord     `json:"wbuy,omitempty"`
	ActiveCampaign *EmailRecord     `json:"active_campaign,omitempty"`
	GA4            *AnalyticsRecord `json:"ga4,omitempty"`
	Stape          *TaggingRecord   `json:"stape,omitempty"`
}

// OrderPage 订单平台分页结果
type OrderPage struct {
	Records    []OrderRecord
	NextCursor string // 为空表示没有后续页
}

// ProductPage 商品分页结果
type ProductPage struct {
	Records    []ProductRecord
	NextCursor string
}

// CustomerPage 客户分页结果
type CustomerPage struct {
	Records    []CustomerRecord
	NextCursor string
}
