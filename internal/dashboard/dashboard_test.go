package dashboard

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-systems-lab/shortlink/internal/apperr"
	"github.com/go-systems-lab/shortlink/internal/cache"
	"github.com/go-systems-lab/shortlink/internal/keyname"
)

func newTestCache(t *testing.T) *cache.Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return cache.New(cache.Config{Host: mr.Host(), Port: mr.Port()})
}

type fakeRPC struct {
	reply []byte
	err   error
	calls int
}

func (f *fakeRPC) Call(ctx context.Context, queueName string, payload []byte, timeout time.Duration) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func TestGetDashboard_RejectsNonPositiveOwnerID(t *testing.T) {
	r := New(newTestCache(t), &fakeRPC{}, keyname.New("test"), time.Minute, time.Second, "dashboard_request")
	_, err := r.GetDashboard(context.Background(), 0)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.InvalidInput, ae.Kind)
}

func TestGetDashboard_CacheHitSkipsRPC(t *testing.T) {
	c := newTestCache(t)
	names := keyname.New("test")
	rpc := &fakeRPC{}
	r := New(c, rpc, names, time.Minute, time.Second, "dashboard_request")

	require.NoError(t, c.Set(context.Background(), names.Dashboard(42), Response{Status: "success", TotalClicks: 5}, time.Minute))

	resp, err := r.GetDashboard(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.TotalClicks)
	assert.Equal(t, 0, rpc.calls)
}

func TestGetDashboard_MissCallsRPCAndCaches(t *testing.T) {
	c := newTestCache(t)
	names := keyname.New("test")
	reply, _ := json.Marshal(Response{Status: "success", TotalClicks: 10})
	rpc := &fakeRPC{reply: reply}
	r := New(c, rpc, names, time.Minute, time.Second, "dashboard_request")

	resp, err := r.GetDashboard(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(10), resp.TotalClicks)
	assert.Equal(t, 1, rpc.calls)

	var cached Response
	require.NoError(t, c.Get(context.Background(), names.Dashboard(42), &cached))
	assert.Equal(t, int64(10), cached.TotalClicks)
}

func TestGetDashboard_InvalidationFlagForcesRefresh(t *testing.T) {
	c := newTestCache(t)
	names := keyname.New("test")
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, names.Dashboard(42), Response{Status: "success", TotalClicks: 1}, time.Minute))
	require.NoError(t, c.SetInvalidationFlag(ctx, names.DashboardInvalid(42), time.Minute))

	reply, _ := json.Marshal(Response{Status: "success", TotalClicks: 99})
	rpc := &fakeRPC{reply: reply}
	r := New(c, rpc, names, time.Minute, time.Second, "dashboard_request")

	resp, err := r.GetDashboard(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(99), resp.TotalClicks)
	assert.Equal(t, 1, rpc.calls)

	exists, err := c.Exists(ctx, names.DashboardInvalid(42))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetDashboard_ErrorStatusPropagatesAsExternalServiceError(t *testing.T) {
	reply, _ := json.Marshal(Response{Status: "error", Message: "upstream down"})
	rpc := &fakeRPC{reply: reply}
	r := New(newTestCache(t), rpc, keyname.New("test"), time.Minute, time.Second, "dashboard_request")

	_, err := r.GetDashboard(context.Background(), 42)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.ExternalService, ae.Kind)
	assert.Equal(t, "upstream down", ae.Message)
}

func TestGetDashboard_LimitedStatusReturnsPayloadWithFlag(t *testing.T) {
	reply, _ := json.Marshal(Response{Status: "limited", TotalClicks: 3})
	rpc := &fakeRPC{reply: reply}
	r := New(newTestCache(t), rpc, keyname.New("test"), time.Minute, time.Second, "dashboard_request")

	resp, err := r.GetDashboard(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, resp.Limited)
	assert.Equal(t, int64(3), resp.TotalClicks)
}
