package platform

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"bluecrm/attribsync/pkg/errorutil"
)

// WbuyClient 订单平台客户端（交易事实来源）
type WbuyClient struct {
	api      *apiClient
	storeID  string
	pageSize int
}

// NewWbuyClient 创建订单平台客户端（Basic 认证：api_key:api_secret）
func NewWbuyClient(creds Credentials, pageSize int, timeout time.Duration) *WbuyClient {
	token := base64.StdEncoding.EncodeToString([]byte(creds.APIKey + ":" + creds.APISecret))
	headers := map[string]string{
		"Authorization": "Basic " + token,
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	return &WbuyClient{
		api:      newAPIClient(NameWbuy, creds.APIURL, headers, timeout),
		storeID:  creds.StoreID,
		pageSize: pageSize,
	}
}

// wbuy 平台响应结构
type wbuyOrder struct {
	ID            string      `json:"id"`
	Code          string      `json:"order_code"`
	Status        string      `json:"status"`
	Total         json.Number `json:"total"`
	PaymentMethod string      `json:"payment_method"`
	Customer      struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"customer"`
	UTM struct {
		Source string `json:"source"`
		Medium string `json:"medium"`
	} `json:"utm"`
	Referral struct {
		Code string `json:"code"`
	} `json:"referral"`
	Items []struct {
		ProductID string      `json:"product_id"`
		Name      string      `json:"name"`
		Quantity  int         `json:"quantity"`
		Price     json.Number `json:"price"`
	} `json:"items"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type wbuyProduct struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Price     json.Number `json:"price"`
	UpdatedAt string      `json:"updated_at"`
}

type wbuyCustomer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	UpdatedAt string `json:"updated_at"`
}

type wbuyListEnvelope struct {
	Data   []json.RawMessage `json:"data"`
	Paging struct {
		NextCursor string `json:"next_cursor"`
	} `json:"paging"`
}

// Ping 认证连通性检查（同步任务的致命前置步骤）
func (c *WbuyClient) Ping(ctx context.Context) error {
	_, found, err := c.api.get(ctx, "/v1/stores/"+url.PathEscape(c.storeID), nil)
	if err != nil {
		return err
	}
	if !found {
		return errorutil.PlatformUnavailable(NameWbuy, fmt.Errorf("store %s not visible to credentials", c.storeID))
	}
	return nil
}

// FetchByOrderKey 按订单号查询单个订单
func (c *WbuyClient) FetchByOrderKey(ctx context.Context, key string) (*OrderRecord, error) {
	body, found, err := c.api.get(ctx, "/v1/orders/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var raw wbuyOrder
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errorutil.PlatformUnavailable(NameWbuy, fmt.Errorf("malformed order payload: %w", err))
	}

	return c.toOrderRecord(&raw, body)
}

// ListChangedOrders 增量拉取变更订单（游标分页，单页内顺序保证）
func (c *WbuyClient) ListChangedOrders(ctx context.Context, since time.Time, cursor string) (*OrderPage, error) {
	env, err := c.list(ctx, "/v1/orders", since, cursor)
	if err != nil {
		return nil, err
	}

	page := &OrderPage{NextCursor: env.Paging.NextCursor}
	for _, item := range env.Data {
		var raw wbuyOrder
		if err := json.Unmarshal(item, &raw); err != nil {
			return nil, errorutil.PlatformUnavailable(NameWbuy, fmt.Errorf("malformed order in page: %w", err))
		}
		rec, err := c.toOrderRecord(&raw, item)
		if err != nil {
			return nil, err
		}
		page.Records = append(page.Records, *rec)
	}
	return page, nil
}

// ListChangedProducts 增量拉取变更商品
func (c *WbuyClient) ListChangedProducts(ctx context.Context, since time.Time, cursor string) (*ProductPage, error) {
	env, err := c.list(ctx, "/v1/products", since, cursor)
	if err != nil {
		return nil, err
	}

	page := &ProductPage{NextCursor: env.Paging.NextCursor}
	for _, item := range env.Data {
		var raw wbuyProduct
		if err := json.Unmarshal(item, &raw); err != nil {
			return nil, errorutil.PlatformUnavailable(NameWbuy, fmt.Errorf("malformed product in page: %w", err))
		}
		price, err := parseAmount(raw.Price)
		if err != nil {
			return nil, errorutil.PlatformUnavailable(NameWbuy, fmt.Errorf("product %s: %w", raw.ID, err))
		}
		page.Records = append(page.Records, ProductRecord{
			PlatformProductID: raw.ID,
			Name:              raw.Name,
			Price:             price,
			UpdatedAt:         parseTime(raw.UpdatedAt),
			Raw:               item,
		})
	}
	return page, nil
}

// ListChangedCustomers 增量拉取变更客户
func (c *WbuyClient) ListChangedCustomers(ctx context.Context, since time.Time, cursor string) (*CustomerPage, error) {
	env, err := c.list(ctx, "/v1/customers", since, cursor)
	if err != nil {
		return nil, err
	}

	page := &CustomerPage{NextCursor: env.Paging.NextCursor}
	for _, item := range env.Data {
		var raw wbuyCustomer
		if err := json.Unmarshal(item, &raw); err != nil {
			return nil, errorutil.PlatformUnavailable(NameWbuy, fmt.Errorf("malformed customer in page: %w", err))
		}
		page.Records = append(page.Records, CustomerRecord{
			PlatformCustomerID: raw.ID,
			Name:               raw.Name,
			Email:              raw.Email,
			UpdatedAt:          parseTime(raw.UpdatedAt),
			Raw:                item,
		})
	}
	return page, nil
}

// list 通用增量列表请求
func (c *WbuyClient) list(ctx context.Context, path string, since time.Time, cursor string) (*wbuyListEnvelope, error) {
	params := url.Values{}
	params.Set("store_id", c.storeID)
	params.Set("limit", strconv.Itoa(c.pageSize))
	if !since.IsZero() {
		params.Set("updated_since", since.UTC().Format(time.RFC3339))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	body, found, err := c.api.get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	if !found {
		// 列表端点不应返回 404，视为平台异常
		return nil, errorutil.PlatformUnavailable(NameWbuy, fmt.Errorf("list endpoint %s returned 404", path))
	}

	var env wbuyListEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errorutil.PlatformUnavailable(NameWbuy, fmt.Errorf("malformed list payload: %w", err))
	}
	return &env, nil
}

// toOrderRecord 转换为统一订单记录
func (c *WbuyClient) toOrderRecord(raw *wbuyOrder, body []byte) (*OrderRecord, error) {
	total, err := parseAmount(raw.Total)
	if err != nil {
		return nil, errorutil.PlatformUnavailable(NameWbuy, fmt.Errorf("order %s: %w", raw.ID, err))
	}

	rec := &OrderRecord{
		PlatformOrderID: raw.ID,
		OrderCode:       raw.Code,
		CustomerEmail:   raw.Customer.Email,
		Status:          raw.Status,
		Total:           total,
		PaymentMethod:   raw.PaymentMethod,
		UTMSource:       raw.UTM.Source,
		UTMMedium:       raw.UTM.Medium,
		ReferralCode:    raw.Referral.Code,
		CreatedAt:       parseTime(raw.CreatedAt),
		UpdatedAt:       parseTime(raw.UpdatedAt),
		Raw:             body,
	}

	for _, item := range raw.Items {
		price, err := parseAmount(item.Price)
		if err != nil {
			return nil, errorutil.PlatformUnavailable(NameWbuy, fmt.Errorf("order %s item %s: %w", raw.ID, item.ProductID, err))
		}
		rec.Items = append(rec.Items, LineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     price,
		})
	}

	return rec, nil
}

// parseAmount 解析金额字段
func parseAmount(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", n.String(), err)
	}
	return d, nil
}

// parseTime 解析 RFC3339 时间戳，非法值返回零值
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
