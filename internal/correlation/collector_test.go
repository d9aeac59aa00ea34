package correlation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bluecrm/attribsync/internal/platform"
	"bluecrm/attribsync/pkg/errorutil"
)

type collectorNopLogger struct{}

func (collectorNopLogger) Debugf(ctx context.Context, format string, args ...interface{}) {}
func (collectorNopLogger) Infof(ctx context.Context, format string, args ...interface{})  {}
func (collectorNopLogger) Warnf(ctx context.Context, format string, args ...interface{})  {}
func (collectorNopLogger) Errorf(ctx context.Context, format string, args ...interface{}) {}
func (collectorNopLogger) Sync() error                                                    { return nil }

func clientSet(wbuyURL, acURL, ga4URL, stapeURL string) *platform.ClientSet {
	set := platform.CredentialSet{}
	if wbuyURL != "" {
		set[platform.ProviderWbuy] = platform.Credentials{
			Provider: platform.ProviderWbuy, APIURL: wbuyURL,
			APIKey: "k", APISecret: "s", StoreID: "st1",
		}
	}
	if acURL != "" {
		set[platform.ProviderActiveCampaign] = platform.Credentials{
			Provider: platform.ProviderActiveCampaign, APIURL: acURL, APIKey: "k",
		}
	}
	if ga4URL != "" {
		set[platform.ProviderGA4] = platform.Credentials{
			Provider: platform.ProviderGA4, APIURL: ga4URL, APIKey: "k", PropertyID: "prop-1",
		}
	}
	if stapeURL != "" {
		set[platform.ProviderStape] = platform.Credentials{
			Provider: platform.ProviderStape, APIURL: stapeURL, APIKey: "k",
		}
	}
	return platform.NewClientSet(set, 100, 5*time.Second)
}

func wbuyOrderServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "WB-1",
			"customer": {"email": "maria@example.com"},
			"utm": {"source": "instagram"},
			"referral": {"code": "AFIL7"}
		}`))
	}))
}

func TestAssembleAllPlatforms(t *testing.T) {
	wbuySrv := wbuyOrderServer(t)
	defer wbuySrv.Close()

	acSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "maria@example.com", r.URL.Query().Get("email"))
		w.Write([]byte(`{"contacts": [{"id": "c1", "email": "maria@example.com", "first_source": "instagram"}]}`))
	}))
	defer acSrv.Close()

	ga4Srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "WB-1", r.URL.Query().Get("transaction_id"))
		w.Write([]byte(`{"client_id": "g1", "first_source": "instagram", "sessions": 3}`))
	}))
	defer ga4Srv.Close()

	stapeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"first_referrer": "instagram", "last_referrer": "instagram", "affiliate_code": "AFIL7"}`))
	}))
	defer stapeSrv.Close()

	collector := NewCollector(collectorNopLogger{})
	rec, warnings, err := collector.Assemble(context.Background(),
		clientSet(wbuySrv.URL, acSrv.URL, ga4Srv.URL, stapeSrv.URL), "WB-1")

	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.NotNil(t, rec.Wbuy)
	require.NotNil(t, rec.ActiveCampaign)
	require.NotNil(t, rec.GA4)
	require.NotNil(t, rec.Stape)
	assert.Equal(t, "AFIL7", rec.Stape.AffiliateCode)
	assert.Equal(t, 3, rec.GA4.Sessions)
}

func TestAssembleAuxiliaryFailureIsWarning(t *testing.T) {
	wbuySrv := wbuyOrderServer(t)
	defer wbuySrv.Close()

	stapeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer stapeSrv.Close()

	collector := NewCollector(collectorNopLogger{})
	rec, warnings, err := collector.Assemble(context.Background(),
		clientSet(wbuySrv.URL, "", "", stapeSrv.URL), "WB-1")

	// 辅助平台不可用降级为警告，汇集照常完成
	require.NoError(t, err)
	require.NotNil(t, rec.Wbuy)
	assert.Nil(t, rec.Stape)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], platform.NameStape)
}

func TestAssembleAuxiliaryNotFoundIsNil(t *testing.T) {
	wbuySrv := wbuyOrderServer(t)
	defer wbuySrv.Close()

	ga4Srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ga4Srv.Close()

	collector := NewCollector(collectorNopLogger{})
	rec, warnings, err := collector.Assemble(context.Background(),
		clientSet(wbuySrv.URL, "", ga4Srv.URL, ""), "WB-1")

	// 无记录不是错误：槽位为 nil 且没有警告
	require.NoError(t, err)
	assert.Nil(t, rec.GA4)
	assert.Empty(t, warnings)
}

func TestAssembleOrderPlatformFailureAborts(t *testing.T) {
	wbuySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer wbuySrv.Close()

	collector := NewCollector(collectorNopLogger{})
	rec, _, err := collector.Assemble(context.Background(),
		clientSet(wbuySrv.URL, "", "", ""), "WB-1")

	require.Error(t, err)
	assert.True(t, errorutil.IsPlatformUnavailable(err))
	assert.Nil(t, rec)
}

func TestAssembleOrderMissingSkipsEmailLookup(t *testing.T) {
	wbuySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer wbuySrv.Close()

	acCalled := false
	acSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acCalled = true
		w.Write([]byte(`{"contacts": []}`))
	}))
	defer acSrv.Close()

	collector := NewCollector(collectorNopLogger{})
	rec, _, err := collector.Assemble(context.Background(),
		clientSet(wbuySrv.URL, acSrv.URL, "", ""), "WB-404")

	require.NoError(t, err)
	assert.Nil(t, rec.Wbuy)
	// 没有订单就没有客户邮箱，邮件平台不查询
	assert.False(t, acCalled)
}

func TestAssembleRequiresOrderClient(t *testing.T) {
	collector := NewCollector(collectorNopLogger{})

	_, _, err := collector.Assemble(context.Background(), nil, "WB-1")
	assert.Error(t, err)

	_, _, err = collector.Assemble(context.Background(), &platform.ClientSet{}, "WB-1")
	assert.Error(t, err)
}
