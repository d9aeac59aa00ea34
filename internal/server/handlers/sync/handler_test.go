package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bluecrm/attribsync/internal/entity"
	"bluecrm/attribsync/internal/notify"
	"bluecrm/attribsync/internal/server/middlewares"
	"bluecrm/attribsync/internal/service"
	"bluecrm/attribsync/internal/syncer"
	"bluecrm/attribsync/pkg/errorutil"
	"bluecrm/attribsync/pkg/ginx"
)

type nopLogger struct{}

func (nopLogger) Debugf(ctx context.Context, format string, args ...interface{}) {}
func (nopLogger) Infof(ctx context.Context, format string, args ...interface{})  {}
func (nopLogger) Warnf(ctx context.Context, format string, args ...interface{})  {}
func (nopLogger) Errorf(ctx context.Context, format string, args ...interface{}) {}
func (nopLogger) Sync() error                                                    { return nil }

type fakeStarter struct {
	result  *syncer.StartResult
	err     error
	gotOpts syncer.Options
}

func (f *fakeStarter) StartSync(ctx context.Context, tenantID string, opts syncer.Options) (*syncer.StartResult, error) {
	f.gotOpts = opts
	return f.result, f.err
}

type fakeRunStore struct {
	runs    map[string]*entity.SyncRun
	latest  *entity.SyncRun
	history []*entity.SyncRun
	failed  []string
}

func (s *fakeRunStore) GetByID(ctx context.Context, runID string) (*entity.SyncRun, error) {
	return s.runs[runID], nil
}

func (s *fakeRunStore) GetLatest(ctx context.Context, tenantID string) (*entity.SyncRun, error) {
	return s.latest, nil
}

func (s *fakeRunStore) ListHistory(ctx context.Context, tenantID string, page, limit int) ([]*entity.SyncRun, int64, error) {
	return s.history, int64(len(s.history)), nil
}

func (s *fakeRunStore) Update(ctx context.Context, runID string, updates map[string]interface{}) error {
	s.failed = append(s.failed, runID)
	return nil
}

type fakePublisher struct {
	published int
	err       error
}

func (p *fakePublisher) Publish(queue string, data []byte, ttl, delay uint32) error {
	p.published++
	return p.err
}

type fakeWaiter struct {
	notification *notify.SyncNotification
	err          error
}

func (w *fakeWaiter) WaitForSync(ctx context.Context, tenantID, syncID string, timeout time.Duration) (*notify.SyncNotification, error) {
	return w.notification, w.err
}

func setupRouter(starter *fakeStarter, runs *fakeRunStore, publisher *fakePublisher, waiter *fakeWaiter) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := service.NewSyncService(starter, runs, publisher, waiter, "attribution", nopLogger{})
	handler := NewSyncHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middlewares.TenantIDKey, "t1")
	})
	r.POST("/api/v1/sync", handler.Trigger)
	r.GET("/api/v1/sync/latest", handler.Latest)
	r.GET("/api/v1/sync/history", handler.History)
	r.GET("/api/v1/sync/:id", handler.Get)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, ginx.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp ginx.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestTriggerProcessing(t *testing.T) {
	starter := &fakeStarter{result: &syncer.StartResult{Success: true, SyncID: "sync-1"}}
	publisher := &fakePublisher{}
	r := setupRouter(starter, &fakeRunStore{runs: map[string]*entity.SyncRun{}}, publisher, &fakeWaiter{})

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/sync", `{"fullSync": true}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3001, resp.Meta.Code)
	assert.Equal(t, 1, publisher.published)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "sync-1", data["id"])
	assert.Equal(t, "/api/v1/sync/sync-1", data["poll_url"])
}

func TestTriggerEmptyBody(t *testing.T) {
	// 全部字段可选，请求体可省略
	starter := &fakeStarter{result: &syncer.StartResult{Success: true, SyncID: "sync-1"}}
	r := setupRouter(starter, &fakeRunStore{runs: map[string]*entity.SyncRun{}}, &fakePublisher{}, &fakeWaiter{})

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/sync", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3001, resp.Meta.Code)
}

func TestTriggerQueryParams(t *testing.T) {
	// 同步参数也可以走 query，无请求体
	starter := &fakeStarter{result: &syncer.StartResult{Success: true, SyncID: "sync-1"}}
	r := setupRouter(starter, &fakeRunStore{runs: map[string]*entity.SyncRun{}}, &fakePublisher{}, &fakeWaiter{})

	w, _ := doJSON(t, r, http.MethodPost,
		"/api/v1/sync?fullSync=true&startDate=2026-01-01&endDate=2026-01-31", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, starter.gotOpts.FullSync)
	require.NotNil(t, starter.gotOpts.StartDate)
	require.NotNil(t, starter.gotOpts.EndDate)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *starter.gotOpts.StartDate)
	// 结束日取当日末尾
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC).Add(24*time.Hour-time.Nanosecond),
		*starter.gotOpts.EndDate)
}

func TestTriggerBodyOverridesQuery(t *testing.T) {
	starter := &fakeStarter{result: &syncer.StartResult{Success: true, SyncID: "sync-1"}}
	r := setupRouter(starter, &fakeRunStore{runs: map[string]*entity.SyncRun{}}, &fakePublisher{}, &fakeWaiter{})

	w, _ := doJSON(t, r, http.MethodPost,
		"/api/v1/sync?startDate=2026-01-01", `{"startDate": "2026-02-01"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, starter.gotOpts.StartDate)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), *starter.gotOpts.StartDate)
}

func TestTriggerInvalidQueryDate(t *testing.T) {
	starter := &fakeStarter{result: &syncer.StartResult{Success: true, SyncID: "sync-1"}}
	r := setupRouter(starter, &fakeRunStore{runs: map[string]*entity.SyncRun{}}, &fakePublisher{}, &fakeWaiter{})

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/sync?startDate=01-01-2026", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTriggerConflict(t *testing.T) {
	starter := &fakeStarter{
		result: &syncer.StartResult{Success: false, SyncID: "sync-active"},
		err:    errorutil.SyncConflict("tenant t1 already has sync sync-active in progress"),
	}
	publisher := &fakePublisher{}
	r := setupRouter(starter, &fakeRunStore{runs: map[string]*entity.SyncRun{}}, publisher, &fakeWaiter{})

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/sync", `{}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, resp.Meta.Message, "sync-active")
	// 冲突时不发布新 Job
	assert.Equal(t, 0, publisher.published)
}

func TestTriggerSmartWaitHit(t *testing.T) {
	runs := &fakeRunStore{runs: map[string]*entity.SyncRun{
		"sync-1": {
			ID: "sync-1", TenantID: "t1",
			Status:       entity.SyncStatusCompleted,
			TotalRecords: 10,
			StartedAt:    time.Now(),
		},
	}}
	starter := &fakeStarter{result: &syncer.StartResult{Success: true, SyncID: "sync-1"}}
	waiter := &fakeWaiter{notification: &notify.SyncNotification{SyncID: "sync-1", Status: entity.SyncStatusCompleted}}
	r := setupRouter(starter, runs, &fakePublisher{}, waiter)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/sync?wait=5", `{}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 200, resp.Meta.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "sync-1", data["id"])
	assert.Equal(t, entity.SyncStatusCompleted, data["status"])
}

func TestTriggerSmartWaitTimeoutFallsBackToPolling(t *testing.T) {
	starter := &fakeStarter{result: &syncer.StartResult{Success: true, SyncID: "sync-1"}}
	waiter := &fakeWaiter{err: fmt.Errorf("wait timeout")}
	r := setupRouter(starter, &fakeRunStore{runs: map[string]*entity.SyncRun{}}, &fakePublisher{}, waiter)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/sync?wait=5", `{}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3001, resp.Meta.Code)
}

func TestTriggerEnqueueFailureMarksRunFailed(t *testing.T) {
	starter := &fakeStarter{result: &syncer.StartResult{Success: true, SyncID: "sync-1"}}
	runs := &fakeRunStore{runs: map[string]*entity.SyncRun{}}
	publisher := &fakePublisher{err: fmt.Errorf("queue down")}
	r := setupRouter(starter, runs, publisher, &fakeWaiter{})

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/sync", `{}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// 入队失败必须终结刚创建的记录，避免租户被僵尸任务锁死
	assert.Equal(t, []string{"sync-1"}, runs.failed)
}

func TestTriggerInvalidDateRange(t *testing.T) {
	starter := &fakeStarter{result: &syncer.StartResult{Success: true, SyncID: "sync-1"}}
	r := setupRouter(starter, &fakeRunStore{runs: map[string]*entity.SyncRun{}}, &fakePublisher{}, &fakeWaiter{})

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/sync",
		`{"startDate": "2026-08-10", "endDate": "2026-08-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/sync", `{"startDate": "10/08/2026"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRun(t *testing.T) {
	runs := &fakeRunStore{runs: map[string]*entity.SyncRun{
		"sync-1": {ID: "sync-1", Status: entity.SyncStatusCompleted, StartedAt: time.Now()},
	}}
	r := setupRouter(&fakeStarter{}, runs, &fakePublisher{}, &fakeWaiter{})

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/sync/sync-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 200, resp.Meta.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/sync/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistory(t *testing.T) {
	runs := &fakeRunStore{history: []*entity.SyncRun{
		{ID: "sync-2", Status: entity.SyncStatusCompleted, StartedAt: time.Now()},
		{ID: "sync-1", Status: entity.SyncStatusFailed, StartedAt: time.Now().Add(-time.Hour)},
	}}
	r := setupRouter(&fakeStarter{}, runs, &fakePublisher{}, &fakeWaiter{})

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/sync/history?page=1&limit=20", "")
	assert.Equal(t, http.StatusOK, w.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])
	assert.Len(t, data["items"], 2)
}
