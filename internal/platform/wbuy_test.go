package platform

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bluecrm/attribsync/pkg/errorutil"
)

func wbuyCreds(apiURL string) Credentials {
	return Credentials{
		Provider:  ProviderWbuy,
		APIURL:    apiURL,
		APIKey:    "key",
		APISecret: "secret",
		StoreID:   "store-1",
	}
}

func TestWbuyFetchByOrderKey(t *testing.T) {
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("key:secret"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantAuth, r.Header.Get("Authorization"))
		assert.Equal(t, "/v1/orders/WB-12345", r.URL.Path)
		w.Write([]byte(`{
			"id": "WB-12345",
			"order_code": "12345",
			"status": "paid",
			"total": "150.00",
			"payment_method": "pix",
			"customer": {"name": "Maria", "email": "maria@example.com"},
			"utm": {"source": "Instagram", "medium": "social"},
			"referral": {"code": "AFIL7"},
			"items": [{"product_id": "P1", "name": "Curso", "quantity": 2, "price": "75.00"}],
			"created_at": "2026-08-01T10:00:00Z",
			"updated_at": "2026-08-02T10:00:00Z"
		}`))
	}))
	defer srv.Close()

	cli := NewWbuyClient(wbuyCreds(srv.URL), 100, 5*time.Second)
	rec, err := cli.FetchByOrderKey(context.Background(), "WB-12345")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "WB-12345", rec.PlatformOrderID)
	assert.Equal(t, "12345", rec.OrderCode)
	assert.Equal(t, "maria@example.com", rec.CustomerEmail)
	assert.Equal(t, "150.00", rec.Total.StringFixed(2))
	assert.Equal(t, "Instagram", rec.UTMSource)
	assert.Equal(t, "AFIL7", rec.ReferralCode)
	require.Len(t, rec.Items, 1)
	assert.Equal(t, 2, rec.Items[0].Quantity)
	assert.NotEmpty(t, rec.Raw)
}

func TestWbuyFetchByOrderKeyNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cli := NewWbuyClient(wbuyCreds(srv.URL), 100, 5*time.Second)
	rec, err := cli.FetchByOrderKey(context.Background(), "WB-404")

	// 404 是预期结果，不是错误
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestWbuyServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cli := NewWbuyClient(wbuyCreds(srv.URL), 100, 5*time.Second)
	_, err := cli.FetchByOrderKey(context.Background(), "WB-1")

	require.Error(t, err)
	assert.True(t, errorutil.IsPlatformUnavailable(err))
	assert.True(t, errorutil.IsRetryable(err))
}

func TestWbuyListChangedOrdersPagination(t *testing.T) {
	var gotCursors []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		assert.Equal(t, "store-1", r.URL.Query().Get("store_id"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		assert.Equal(t, "2026-08-01T00:00:00Z", r.URL.Query().Get("updated_since"))

		cursor := r.URL.Query().Get("cursor")
		gotCursors = append(gotCursors, cursor)
		if cursor == "" {
			w.Write([]byte(`{
				"data": [{"id": "WB-1", "total": "10.00"}, {"id": "WB-2", "total": "20.00"}],
				"paging": {"next_cursor": "c2"}
			}`))
			return
		}
		w.Write([]byte(`{
			"data": [{"id": "WB-3", "total": "30.00"}],
			"paging": {"next_cursor": ""}
		}`))
	}))
	defer srv.Close()

	cli := NewWbuyClient(wbuyCreds(srv.URL), 2, 5*time.Second)
	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	page1, err := cli.ListChangedOrders(context.Background(), since, "")
	require.NoError(t, err)
	require.Len(t, page1.Records, 2)
	assert.Equal(t, "c2", page1.NextCursor)

	page2, err := cli.ListChangedOrders(context.Background(), since, page1.NextCursor)
	require.NoError(t, err)
	require.Len(t, page2.Records, 1)
	assert.Equal(t, "WB-3", page2.Records[0].PlatformOrderID)
	assert.Empty(t, page2.NextCursor)

	assert.Equal(t, []string{"", "c2"}, gotCursors)
}

func TestWbuyListOmitsUpdatedSinceForFullSync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["updated_since"]
		assert.False(t, present)
		w.Write([]byte(`{"data": [], "paging": {"next_cursor": ""}}`))
	}))
	defer srv.Close()

	cli := NewWbuyClient(wbuyCreds(srv.URL), 100, 5*time.Second)
	page, err := cli.ListChangedOrders(context.Background(), time.Time{}, "")
	require.NoError(t, err)
	assert.Empty(t, page.Records)
}

func TestWbuyPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/stores/store-1", r.URL.Path)
		w.Write([]byte(`{"id": "store-1"}`))
	}))
	defer srv.Close()

	cli := NewWbuyClient(wbuyCreds(srv.URL), 100, 5*time.Second)
	assert.NoError(t, cli.Ping(context.Background()))
}

func TestWbuyPingStoreNotVisible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cli := NewWbuyClient(wbuyCreds(srv.URL), 100, 5*time.Second)
	err := cli.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errorutil.IsPlatformUnavailable(err))
}
