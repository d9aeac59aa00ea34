package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bluecrm/attribsync/pkg/errorutil"
)

// apiClient 平台 HTTP 客户端基座
// 无状态：除出站请求外没有任何副作用，重试策略由调用方决定
type apiClient struct {
	platform string
	baseURL  string
	headers  map[string]string
	hc       *http.Client
}

// newAPIClient 创建平台客户端基座（headers 为各平台自己的认证头）
func newAPIClient(platform, baseURL string, headers map[string]string, timeout time.Duration) *apiClient {
	return &apiClient{
		platform: platform,
		baseURL:  strings.TrimRight(baseURL, "/"),
		headers:  headers,
		hc:       &http.Client{Timeout: timeout},
	}
}

// get 执行 GET 请求
// 返回值约定：404 -> (nil, false, nil)；2xx -> (body, true, nil)；
// 其余失败 -> PlatformUnavailable
func (c *apiClient) get(ctx context.Context, path string, params url.Values) ([]byte, bool, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, errorutil.PlatformUnavailable(c.platform, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, false, errorutil.PlatformUnavailable(c.platform, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, errorutil.PlatformUnavailable(c.platform, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		// 未找到是预期结果：订单可能尚未到达该平台
		return nil, false, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, errorutil.PlatformUnavailable(c.platform,
			fmt.Errorf("api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	return body, true, nil
}
