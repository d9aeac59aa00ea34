package correlation

import (
	"context"
	"fmt"
	"sync"

	"bluecrm/attribsync/internal/platform"
	"bluecrm/attribsync/pkg/errorutil"
	"bluecrm/attribsync/pkg/logger"
)

// Collector 跨平台数据汇集器
type Collector struct {
	log logger.Logger
}

// NewCollector 创建汇集器实例
func NewCollector(log logger.Logger) *Collector {
	return &Collector{log: log}
}

// Assemble 汇集单个订单的跨平台视图
// 订单平台先查（基准数据 + 客户邮箱）；其余三个平台并发查询，相互独立。
// 平台无记录 -> 槽位为 nil；平台不可用 -> 槽位为 nil 并记入 warnings，
// 不中断整体汇集（确定性摘要永远可产出）。
func (c *Collector) Assemble(ctx context.Context, clients *platform.ClientSet, orderKey string) (*platform.CrossPlatformRecord, []string, error) {
	if clients == nil || clients.Wbuy == nil {
		return nil, nil, fmt.Errorf("order platform client is required")
	}

	rec := &platform.CrossPlatformRecord{OrderKey: orderKey}

	order, err := clients.Wbuy.FetchByOrderKey(ctx, orderKey)
	if err != nil {
		// 订单平台不可用时无法汇集，交给调用方决定重试
		return nil, nil, err
	}
	rec.Wbuy = order

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		warnings []string
	)

	warn := func(platformName string, err error) {
		mu.Lock()
		defer mu.Unlock()
		warnings = append(warnings, fmt.Sprintf("%s: %s", platformName, errorutil.Wrap(err).Message))
	}

	if clients.GA4 != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ga4, err := clients.GA4.FetchByOrderKey(ctx, orderKey)
			if err != nil {
				c.log.Warnf(ctx, "[Collector] ga4 fetch failed: order_key=%s, error=%v", orderKey, err)
				warn(platform.NameGA4, err)
				return
			}
			mu.Lock()
			rec.GA4 = ga4
			mu.Unlock()
		}()
	}

	if clients.Stape != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stape, err := clients.Stape.FetchByOrderKey(ctx, orderKey)
			if err != nil {
				c.log.Warnf(ctx, "[Collector] stape fetch failed: order_key=%s, error=%v", orderKey, err)
				warn(platform.NameStape, err)
				return
			}
			mu.Lock()
			rec.Stape = stape
			mu.Unlock()
		}()
	}

	// 邮件平台按客户邮箱查询，没有邮箱就无从查起
	if clients.ActiveCampaign != nil && order != nil && order.CustomerEmail != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			contact, err := clients.ActiveCampaign.FetchByCustomerKey(ctx, order.CustomerEmail)
			if err != nil {
				c.log.Warnf(ctx, "[Collector] active_campaign fetch failed: order_key=%s, error=%v", orderKey, err)
				warn(platform.NameActiveCampaign, err)
				return
			}
			mu.Lock()
			rec.ActiveCampaign = contact
			mu.Unlock()
		}()
	}

	wg.Wait()

	return rec, warnings, nil
}
