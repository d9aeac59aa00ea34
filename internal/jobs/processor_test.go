package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/bitleak/lmstfy/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bluecrm/attribsync/internal/framework"
	"bluecrm/attribsync/internal/jobs/common"
	"bluecrm/attribsync/pkg/errorutil"
	"bluecrm/attribsync/pkg/lmstfyx"
)

type nopLogger struct{}

func (nopLogger) Debugf(ctx context.Context, format string, args ...interface{}) {}
func (nopLogger) Infof(ctx context.Context, format string, args ...interface{})  {}
func (nopLogger) Warnf(ctx context.Context, format string, args ...interface{})  {}
func (nopLogger) Errorf(ctx context.Context, format string, args ...interface{}) {}
func (nopLogger) Sync() error                                                    { return nil }

type fakeSyncExecutor struct {
	gotRunID string
	err      error
}

func (f *fakeSyncExecutor) Execute(ctx context.Context, runID string) error {
	f.gotRunID = runID
	return f.err
}

func syncJobData(t *testing.T, syncID string) []byte {
	t.Helper()
	data, err := json.Marshal(framework.Job{
		Payload: &framework.JobPayload{
			Data: &framework.JobPayloadData{
				RequestID:  "req-1",
				ActionType: ActionAttributionSync,
				TenantID:   "t1",
				ID:         syncID,
				Data:       map[string]string{"sync_id": syncID},
			},
		},
	})
	require.NoError(t, err)
	return data
}

func TestGetProcessSuccess(t *testing.T) {
	executor := &fakeSyncExecutor{}
	proc := GetProcess(nopLogger{}, &common.Deps{Syncer: executor, Log: nopLogger{}})

	resp := proc(context.Background(), &client.Job{Data: syncJobData(t, "sync-1")})

	assert.Equal(t, lmstfyx.JobRespStatusSuccess, resp.Action)
	assert.Equal(t, "sync-1", executor.gotRunID)

	var wrapped framework.Response
	require.NoError(t, json.Unmarshal(resp.Data, &wrapped))
	assert.True(t, wrapped.Processed)
}

func TestGetProcessRetryableFailureReleases(t *testing.T) {
	executor := &fakeSyncExecutor{
		err: errorutil.PlatformUnavailable("wbuy", fmt.Errorf("timeout")),
	}
	proc := GetProcess(nopLogger{}, &common.Deps{Syncer: executor, Log: nopLogger{}})

	resp := proc(context.Background(), &client.Job{Data: syncJobData(t, "sync-1")})

	assert.Equal(t, lmstfyx.JobRespStatusRelease, resp.Action)
}

func TestGetProcessPermanentFailureBuries(t *testing.T) {
	executor := &fakeSyncExecutor{err: fmt.Errorf("malformed run details")}
	proc := GetProcess(nopLogger{}, &common.Deps{Syncer: executor, Log: nopLogger{}})

	resp := proc(context.Background(), &client.Job{Data: syncJobData(t, "sync-1")})

	assert.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)
}

func TestGetProcessUnknownActionBuries(t *testing.T) {
	data, err := json.Marshal(framework.Job{
		Payload: &framework.JobPayload{
			Data: &framework.JobPayloadData{
				ActionType: "unknown_action",
				TenantID:   "t1",
			},
		},
	})
	require.NoError(t, err)

	proc := GetProcess(nopLogger{}, &common.Deps{Log: nopLogger{}})
	resp := proc(context.Background(), &client.Job{Data: data})

	assert.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)
}

func TestGetProcessMalformedJobBuries(t *testing.T) {
	proc := GetProcess(nopLogger{}, &common.Deps{Log: nopLogger{}})

	resp := proc(context.Background(), &client.Job{Data: []byte("not-json")})
	assert.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)

	resp = proc(context.Background(), &client.Job{Data: []byte(`{"payload": {}}`)})
	assert.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)
}

func TestGetProcessMissingTenantBuries(t *testing.T) {
	data, err := json.Marshal(framework.Job{
		Payload: &framework.JobPayload{
			Data: &framework.JobPayloadData{
				ActionType: ActionAttributionSync,
				Data:       map[string]string{"sync_id": "sync-1"},
			},
		},
	})
	require.NoError(t, err)

	executor := &fakeSyncExecutor{}
	proc := GetProcess(nopLogger{}, &common.Deps{Syncer: executor, Log: nopLogger{}})
	resp := proc(context.Background(), &client.Job{Data: data})

	assert.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)
	assert.Empty(t, executor.gotRunID)
}

func TestDoJobReport(t *testing.T) {
	ctx := context.Background()

	resp := doJobReport(ctx, []byte("ok"), nil, nopLogger{})
	assert.Equal(t, lmstfyx.JobRespStatusSuccess, resp.Action)
	assert.Equal(t, []byte("ok"), resp.Data)

	resp = doJobReport(ctx, nil, errorutil.PlatformUnavailable("ga4", fmt.Errorf("503")), nopLogger{})
	assert.Equal(t, lmstfyx.JobRespStatusRelease, resp.Action)

	resp = doJobReport(ctx, nil, fmt.Errorf("plain failure"), nopLogger{})
	assert.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)
}
