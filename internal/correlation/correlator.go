package correlation

import (
	"strings"

	"bluecrm/attribsync/internal/platform"
)

// ChannelUnknown 无任何触点信号时的默认渠道
const ChannelUnknown = "Direto/Desconhecido"

// 置信等级标签
const (
	TierLow    = "Low"
	TierMedium = "Medium"
	TierHigh   = "High"
)

// Config 关联配置
type Config struct {
	// PreferTagging 首触点/末触点信号冲突时优先采信服务端埋点平台
	// 该取舍直接影响归因与分佣结果，保持可配置
	PreferTagging bool
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{PreferTagging: true}
}

// Summary 跨平台归因摘要（派生结果，由调用方决定是否持久化）
type Summary struct {
	FirstClick        string   `json:"first_click"`
	LastClick         string   `json:"last_click"`
	AffiliateCode     string   `json:"affiliate_code,omitempty"`
	Confidence        int      `json:"confidence"`
	ConfidenceTier    string   `json:"confidence_tier"`
	MatchingPlatforms []string `json:"matching_platforms"`
}

// signals 单个平台独立派生出的信号三元组（空串表示该平台没有此信号）
type signals struct {
	first     string
	last      string
	affiliate string
}

// Analyze 计算跨平台归因摘要
// 纯函数：无 I/O，相同输入永远产生相同输出
func Analyze(rec *platform.CrossPlatformRecord, cfg Config) *Summary {
	if rec == nil || rec.Wbuy == nil {
		// 连订单平台都没有数据时无法归因
		return &Summary{
			FirstClick:        ChannelUnknown,
			LastClick:         ChannelUnknown,
			Confidence:        0,
			ConfidenceTier:    TierLow,
			MatchingPlatforms: []string{},
		}
	}

	derived := map[string]signals{
		platform.NameWbuy:  deriveWbuy(rec.Wbuy),
		platform.NameStape: deriveStape(rec.Stape),
		platform.NameGA4:   deriveGA4(rec.GA4),
	}
	if rec.ActiveCampaign != nil {
		derived[platform.NameActiveCampaign] = signals{
			first: normalizeChannel(rec.ActiveCampaign.FirstSource),
		}
	}

	excluded := make(map[string]bool)

	// 1. 首触点：分析平台与埋点平台独立派生，冲突时按配置取舍并排除落败方
	firstClick := resolveTouch(derived[platform.NameGA4].first, derived[platform.NameStape].first,
		platform.NameGA4, platform.NameStape, cfg.PreferTagging, excluded)
	if firstClick == "" {
		firstClick = ChannelUnknown
	}

	// 2. 末触点：订单平台捕获的 UTM 与埋点平台的最后事件
	// 订单平台是基准事实来源，冲突时不会被排除
	lastClick := resolveLastTouch(derived[platform.NameWbuy].last, derived[platform.NameStape].last,
		cfg.PreferTagging, excluded)
	if lastClick == "" {
		lastClick = ChannelUnknown
	}

	// 3. 推广码：订单平台的引流元数据优先
	affiliate := derived[platform.NameWbuy].affiliate
	if affiliate == "" && rec.Stape != nil {
		affiliate = derived[platform.NameStape].affiliate
	}

	// 4. 一致平台集合：独立信号与选定三元组一致且无任何冲突信号的平台
	matching := []string{platform.NameWbuy}
	for _, name := range []string{platform.NameActiveCampaign, platform.NameGA4, platform.NameStape} {
		if !present(rec, name) || excluded[name] {
			continue
		}
		if corroborates(derived[name], firstClick, lastClick, affiliate) {
			matching = append(matching, name)
		}
	}

	// 5. 置信度：基准 50，每多一个佐证平台 +15，封顶 99；单平台封顶 50
	confidence := 50 + 15*(len(matching)-1)
	if confidence > 99 {
		confidence = 99
	}

	return &Summary{
		FirstClick:        firstClick,
		LastClick:         lastClick,
		AffiliateCode:     affiliate,
		Confidence:        confidence,
		ConfidenceTier:    TierFor(confidence),
		MatchingPlatforms: matching,
	}
}

// TierFor 置信度分级：Low <60，Medium 60–89，High >=90
func TierFor(confidence int) string {
	switch {
	case confidence >= 90:
		return TierHigh
	case confidence >= 60:
		return TierMedium
	default:
		return TierLow
	}
}

// resolveTouch 在两个对等候选信号间取舍
func resolveTouch(analytics, tagging, analyticsName, taggingName string, preferTagging bool, excluded map[string]bool) string {
	switch {
	case analytics != "" && tagging != "":
		if analytics == tagging {
			return tagging
		}
		// 冲突：落败方不计入一致平台集合
		if preferTagging {
			excluded[analyticsName] = true
			return tagging
		}
		excluded[taggingName] = true
		return analytics
	case tagging != "":
		return tagging
	default:
		return analytics
	}
}

// resolveLastTouch 末触点取舍（订单平台一侧永不排除）
func resolveLastTouch(order, tagging string, preferTagging bool, excluded map[string]bool) string {
	switch {
	case order != "" && tagging != "":
		if order == tagging {
			return order
		}
		if preferTagging {
			return tagging
		}
		excluded[platform.NameStape] = true
		return order
	case tagging != "":
		return tagging
	default:
		return order
	}
}

// corroborates 平台至少有一个信号与选定三元组一致，且没有任何冲突信号
func corroborates(sig signals, firstClick, lastClick, affiliate string) bool {
	agrees := false

	if sig.first != "" {
		if sig.first != firstClick {
			return false
		}
		agrees = true
	}
	if sig.last != "" {
		if sig.last != lastClick {
			return false
		}
		agrees = true
	}
	if sig.affiliate != "" {
		if affiliate == "" || sig.affiliate != affiliate {
			return false
		}
		agrees = true
	}

	return agrees
}

// deriveWbuy 订单平台信号：下单时捕获的 UTM + 引流码
func deriveWbuy(rec *platform.OrderRecord) signals {
	if rec == nil {
		return signals{}
	}
	return signals{
		last:      channelFrom(rec.UTMSource, rec.UTMMedium),
		affiliate: strings.TrimSpace(rec.ReferralCode),
	}
}

// deriveStape 埋点平台信号：事件序列的首末 referrer + 推广码
func deriveStape(rec *platform.TaggingRecord) signals {
	if rec == nil {
		return signals{}
	}
	return signals{
		first:     normalizeChannel(rec.FirstReferrer),
		last:      normalizeChannel(rec.LastReferrer),
		affiliate: strings.TrimSpace(rec.AffiliateCode),
	}
}

// deriveGA4 分析平台信号：首次会话的 source/medium
func deriveGA4(rec *platform.AnalyticsRecord) signals {
	if rec == nil {
		return signals{}
	}
	return signals{
		first: channelFrom(rec.FirstSource, rec.FirstMedium),
	}
}

// present 判断平台槽位是否有数据
func present(rec *platform.CrossPlatformRecord, name string) bool {
	switch name {
	case platform.NameActiveCampaign:
		return rec.ActiveCampaign != nil
	case platform.NameGA4:
		return rec.GA4 != nil
	case platform.NameStape:
		return rec.Stape != nil
	default:
		return false
	}
}

// channelFrom 组合 source/medium 为标准化渠道标签
func channelFrom(source, medium string) string {
	source = normalizeChannel(source)
	if source == "" {
		return ""
	}
	medium = normalizeChannel(medium)
	if medium == "" {
		return source
	}
	return source + "/" + medium
}

// normalizeChannel 渠道标签标准化（小写、去空白）
func normalizeChannel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
