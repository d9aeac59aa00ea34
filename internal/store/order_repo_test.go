package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bluecrm/attribsync/internal/correlation"
	"bluecrm/attribsync/internal/entity"
	"bluecrm/attribsync/internal/refine"
)

func TestAttributionUpdatesWithVerdict(t *testing.T) {
	now := time.Now()
	summary := &correlation.Summary{FirstClick: "instagram", Confidence: 65}
	verdict := &refine.Verdict{Conclusion: "likely instagram"}

	updates, err := attributionUpdates(entity.AttributionStatusAnalyzed, summary, verdict, now)
	require.NoError(t, err)

	assert.Equal(t, entity.AttributionStatusAnalyzed, updates["attribution_status"])
	assert.Equal(t, now, updates["attributed_at"])

	var gotVerdict refine.Verdict
	require.NoError(t, json.Unmarshal(updates["ai_verdict"].([]byte), &gotVerdict))
	assert.Equal(t, "likely instagram", gotVerdict.Conclusion)

	var gotSummary correlation.Summary
	require.NoError(t, json.Unmarshal(updates["attribution_summary"].([]byte), &gotSummary))
	assert.Equal(t, 65, gotSummary.Confidence)
}

func TestAttributionUpdatesAnalyzedWithoutVerdictClearsOld(t *testing.T) {
	// 重新分析未产出 AI 结论时旧结论必须整体替换为空
	summary := &correlation.Summary{FirstClick: "instagram", Confidence: 65}

	updates, err := attributionUpdates(entity.AttributionStatusAnalyzed, summary, nil, time.Now())
	require.NoError(t, err)

	val, ok := updates["ai_verdict"]
	require.True(t, ok)
	assert.Nil(t, val)
}

func TestAttributionUpdatesTypedNilVerdictClearsOld(t *testing.T) {
	// 接口装箱后的空指针与 nil 等价对待
	var verdict *refine.Verdict
	summary := &correlation.Summary{FirstClick: "instagram", Confidence: 65}

	updates, err := attributionUpdates(entity.AttributionStatusAnalyzed, summary, verdict, time.Now())
	require.NoError(t, err)

	val, ok := updates["ai_verdict"]
	require.True(t, ok)
	assert.Nil(t, val)
}

func TestAttributionUpdatesFailedKeepsVerdictUntouched(t *testing.T) {
	// 分析失败不改动既有结论字段
	updates, err := attributionUpdates(entity.AttributionStatusFailed, nil, nil, time.Now())
	require.NoError(t, err)

	_, ok := updates["ai_verdict"]
	assert.False(t, ok)
	_, ok = updates["attribution_summary"]
	assert.False(t, ok)
}

func TestMarshalPresent(t *testing.T) {
	b, err := marshalPresent(nil)
	require.NoError(t, err)
	assert.Nil(t, b)

	var typed *refine.Verdict
	b, err = marshalPresent(typed)
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = marshalPresent(&refine.Verdict{Conclusion: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"conclusion":"x"}`, string(b))
}
