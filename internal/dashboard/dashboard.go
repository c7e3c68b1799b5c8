// Package dashboard serves per-owner analytics as a pure cache-in-front-of-
// RPC reader: the core never recomputes analytics aggregates itself, it only
// caches what the analytics service returns. New component, no direct
// teacher analogue — modelled after the teacher's analytics-svc
// domain/store split (services/analytics-svc/domain/service.go), restructured
// around a cache-then-RPC read instead of a ClickHouse aggregator.
package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-systems-lab/shortlink/internal/apperr"
	"github.com/go-systems-lab/shortlink/internal/keyname"
)

// Cache is the subset of the cache driver (4.A) the dashboard reader needs.
type Cache interface {
	Get(ctx context.Context, key string, out any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	RefreshTTL(ctx context.Context, key string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// RPC is the subset of the RPC client (4.G) the dashboard reader needs.
type RPC interface {
	Call(ctx context.Context, queueName string, payload []byte, timeout time.Duration) ([]byte, error)
}

// Response is the analytics service's reply payload, per spec §6's RPC wire
// format. At most 5 TopLinks and at most 10 StatLinks are ever populated;
// the producer enforces that bound, the reader just passes it through.
type Response struct {
	UserID       int64      `json:"user_id"`
	TotalClicks  int64      `json:"total_clicks"`
	TotalLinks   int64      `json:"total_links"`
	UniqVisitors int64      `json:"uniq_visitors"`
	TopLinks     []TopLink  `json:"top_links,omitempty"`
	StatLinks    []StatLink `json:"stat_links,omitempty"`
	Status       string     `json:"status"`
	Message      string     `json:"message,omitempty"`
	Limited      bool       `json:"-"`
}

// TopLink is one entry of the dashboard's top-links list.
type TopLink struct {
	ShortURL    string `json:"short_url"`
	OriginalURL string `json:"original_url"`
	Clicks      int64  `json:"clicks"`
	Status      string `json:"status"`
}

// StatLink is one entry of the dashboard's per-day click timeline.
type StatLink struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

type request struct {
	UserID int64 `json:"user_id"`
}

// Reader serves GetDashboard reads, per spec §4.L.
type Reader struct {
	cache          Cache
	rpc            RPC
	names          keyname.Namer
	cacheTTL       time.Duration
	rpcTimeout     time.Duration
	dashboardQueue string
}

// New builds a Reader.
func New(c Cache, rpc RPC, names keyname.Namer, cacheTTL, rpcTimeout time.Duration, dashboardQueue string) *Reader {
	return &Reader{cache: c, rpc: rpc, names: names, cacheTTL: cacheTTL, rpcTimeout: rpcTimeout, dashboardQueue: dashboardQueue}
}

// GetDashboard implements spec §4.L's numbered algorithm: invalidation flag
// forces a refresh; otherwise a cache hit is served directly; a miss (or
// forced refresh) calls out to G and re-caches the result, even when the
// reply is status "limited".
func (r *Reader) GetDashboard(ctx context.Context, ownerID int64) (Response, error) {
	if ownerID <= 0 {
		return Response{}, apperr.New(apperr.InvalidInput).WithContext("ownerId", ownerID)
	}

	cacheKey := r.names.Dashboard(ownerID)
	flagKey := r.names.DashboardInvalid(ownerID)

	forced, err := r.cache.Exists(ctx, flagKey)
	if err != nil {
		return Response{}, err
	}
	if forced {
		_ = r.cache.Delete(ctx, flagKey)
	} else {
		var cached Response
		if err := r.cache.Get(ctx, cacheKey, &cached); err == nil {
			_ = r.cache.RefreshTTL(ctx, cacheKey, r.cacheTTL)
			return cached, nil
		}
	}

	payload, err := json.Marshal(request{UserID: ownerID})
	if err != nil {
		return Response{}, apperr.Wrap(apperr.Internal, err)
	}

	reply, err := r.rpc.Call(ctx, r.dashboardQueue, payload, r.rpcTimeout)
	if err != nil {
		return Response{}, err
	}

	var resp Response
	if err := json.Unmarshal(reply, &resp); err != nil {
		return Response{}, apperr.Wrap(apperr.ExternalService, err).WithContext("ownerId", ownerID)
	}

	switch resp.Status {
	case "error":
		return Response{}, apperr.New(apperr.ExternalService).WithMessage(resp.Message).WithContext("ownerId", ownerID)
	case "limited":
		resp.Limited = true
	}

	_ = r.cache.Set(ctx, cacheKey, resp, r.cacheTTL)
	return resp, nil
}
