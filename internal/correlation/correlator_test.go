package correlation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bluecrm/attribsync/internal/platform"
)

func orderRecord(utmSource, utmMedium, referral string) *platform.OrderRecord {
	return &platform.OrderRecord{
		PlatformOrderID: "WB-12345",
		CustomerEmail:   "cliente@example.com",
		UTMSource:       utmSource,
		UTMMedium:       utmMedium,
		ReferralCode:    referral,
	}
}

func TestAnalyzeNoOrderData(t *testing.T) {
	summary := Analyze(&platform.CrossPlatformRecord{OrderKey: "WB-1"}, DefaultConfig())

	assert.Equal(t, ChannelUnknown, summary.FirstClick)
	assert.Equal(t, ChannelUnknown, summary.LastClick)
	assert.Equal(t, 0, summary.Confidence)
	assert.Equal(t, TierLow, summary.ConfidenceTier)
	assert.Empty(t, summary.MatchingPlatforms)
}

func TestAnalyzeOrderOnly(t *testing.T) {
	rec := &platform.CrossPlatformRecord{
		OrderKey: "WB-1",
		Wbuy:     orderRecord("", "", ""),
	}

	summary := Analyze(rec, DefaultConfig())

	assert.Equal(t, ChannelUnknown, summary.FirstClick)
	assert.Equal(t, ChannelUnknown, summary.LastClick)
	assert.Equal(t, 50, summary.Confidence)
	assert.Equal(t, TierLow, summary.ConfidenceTier)
	assert.Equal(t, []string{platform.NameWbuy}, summary.MatchingPlatforms)
}

func TestAnalyzeAllPlatformsAgree(t *testing.T) {
	rec := &platform.CrossPlatformRecord{
		OrderKey:       "WB-1",
		Wbuy:           orderRecord("Instagram", "", "AFIL7"),
		ActiveCampaign: &platform.EmailRecord{Email: "cliente@example.com", FirstSource: "Instagram"},
		GA4:            &platform.AnalyticsRecord{FirstSource: "instagram"},
		Stape: &platform.TaggingRecord{
			FirstReferrer: "instagram",
			LastReferrer:  "instagram",
			AffiliateCode: "AFIL7",
		},
	}

	summary := Analyze(rec, DefaultConfig())

	assert.Equal(t, "instagram", summary.FirstClick)
	assert.Equal(t, "instagram", summary.LastClick)
	assert.Equal(t, "AFIL7", summary.AffiliateCode)
	require.Len(t, summary.MatchingPlatforms, 4)
	assert.Equal(t, 95, summary.Confidence)
	assert.Equal(t, TierHigh, summary.ConfidenceTier)
}

func TestAnalyzeAffiliateCorroboration(t *testing.T) {
	// 订单带引流码、埋点平台推广码一致，但双方都没有触点信号
	rec := &platform.CrossPlatformRecord{
		OrderKey: "WB-12345",
		Wbuy:     orderRecord("", "", "AFIL7"),
		Stape:    &platform.TaggingRecord{AffiliateCode: "AFIL7"},
	}

	summary := Analyze(rec, DefaultConfig())

	assert.Equal(t, ChannelUnknown, summary.FirstClick)
	assert.Equal(t, "AFIL7", summary.AffiliateCode)
	assert.Equal(t, []string{platform.NameWbuy, platform.NameStape}, summary.MatchingPlatforms)
	assert.Equal(t, 65, summary.Confidence)
	assert.Equal(t, TierMedium, summary.ConfidenceTier)
}

func TestAnalyzeFirstTouchConflictPrefersTagging(t *testing.T) {
	rec := &platform.CrossPlatformRecord{
		OrderKey: "WB-1",
		Wbuy:     orderRecord("", "", ""),
		GA4:      &platform.AnalyticsRecord{FirstSource: "google", FirstMedium: "cpc"},
		Stape:    &platform.TaggingRecord{FirstReferrer: "facebook"},
	}

	summary := Analyze(rec, Config{PreferTagging: true})

	assert.Equal(t, "facebook", summary.FirstClick)
	// 落败方不计入一致平台集合
	assert.NotContains(t, summary.MatchingPlatforms, platform.NameGA4)
	assert.Contains(t, summary.MatchingPlatforms, platform.NameStape)
}

func TestAnalyzeFirstTouchConflictPrefersAnalytics(t *testing.T) {
	rec := &platform.CrossPlatformRecord{
		OrderKey: "WB-1",
		Wbuy:     orderRecord("", "", ""),
		GA4:      &platform.AnalyticsRecord{FirstSource: "google", FirstMedium: "cpc"},
		Stape:    &platform.TaggingRecord{FirstReferrer: "facebook"},
	}

	summary := Analyze(rec, Config{PreferTagging: false})

	assert.Equal(t, "google/cpc", summary.FirstClick)
	assert.NotContains(t, summary.MatchingPlatforms, platform.NameStape)
	assert.Contains(t, summary.MatchingPlatforms, platform.NameGA4)
}

func TestAnalyzeConflictingAffiliateExcluded(t *testing.T) {
	rec := &platform.CrossPlatformRecord{
		OrderKey: "WB-1",
		Wbuy:     orderRecord("", "", "AFIL7"),
		Stape:    &platform.TaggingRecord{AffiliateCode: "OUTRO9"},
	}

	summary := Analyze(rec, DefaultConfig())

	// 订单平台的引流码优先，推广码冲突的平台不佐证
	assert.Equal(t, "AFIL7", summary.AffiliateCode)
	assert.Equal(t, []string{platform.NameWbuy}, summary.MatchingPlatforms)
	assert.Equal(t, 50, summary.Confidence)
}

func TestAnalyzeConfidenceMonotonicity(t *testing.T) {
	base := &platform.CrossPlatformRecord{
		OrderKey: "WB-1",
		Wbuy:     orderRecord("Instagram", "social", "AFIL7"),
	}
	baseline := Analyze(base, DefaultConfig()).Confidence

	withStape := &platform.CrossPlatformRecord{
		OrderKey: "WB-1",
		Wbuy:     orderRecord("Instagram", "social", "AFIL7"),
		Stape: &platform.TaggingRecord{
			LastReferrer:  "instagram/social",
			AffiliateCode: "AFIL7",
		},
	}
	richer := Analyze(withStape, DefaultConfig()).Confidence

	assert.GreaterOrEqual(t, richer, baseline)
}

func TestAnalyzeDeterministic(t *testing.T) {
	rec := &platform.CrossPlatformRecord{
		OrderKey: "WB-1",
		Wbuy:     orderRecord("Instagram", "social", "AFIL7"),
		Stape:    &platform.TaggingRecord{FirstReferrer: "instagram", AffiliateCode: "AFIL7"},
	}

	first := Analyze(rec, DefaultConfig())
	second := Analyze(rec, DefaultConfig())

	assert.Equal(t, first, second)
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierLow, TierFor(0))
	assert.Equal(t, TierLow, TierFor(59))
	assert.Equal(t, TierMedium, TierFor(60))
	assert.Equal(t, TierMedium, TierFor(89))
	assert.Equal(t, TierHigh, TierFor(90))
	assert.Equal(t, TierHigh, TierFor(99))
}

func TestChannelFrom(t *testing.T) {
	assert.Equal(t, "instagram/social", channelFrom(" Instagram ", "Social"))
	assert.Equal(t, "instagram", channelFrom("Instagram", ""))
	assert.Equal(t, "", channelFrom("", "social"))
}
