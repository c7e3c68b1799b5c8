// Package redirect serves the hot read path: short code → link projection,
// two-tier cached in front of the store, with a side-effecting dashboard
// invalidation signal. Grounded on the teacher's
// services/redirect-svc/domain/resolver.go + store/store.go cache-then-db
// flow, swapping the teacher's Postgres/Redis pairing for the Mongo/Redis
// pairing used throughout this module.
package redirect

import (
	"context"
	"errors"
	"time"

	"github.com/go-systems-lab/shortlink/internal/cache"
	"github.com/go-systems-lab/shortlink/internal/keyname"
	"github.com/go-systems-lab/shortlink/internal/model"
	"github.com/go-systems-lab/shortlink/internal/obs"
)

// Store is the subset of the link store (4.C) the resolver needs.
type Store interface {
	FindByShortCode(ctx context.Context, shortCode string) (model.LinkProjection, error)
	IncrementClickCount(ctx context.Context, shortCode string) error
}

// Cache is the subset of the cache driver (4.A) the resolver needs.
type Cache interface {
	Get(ctx context.Context, key string, out any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	RefreshTTL(ctx context.Context, key string, ttl time.Duration) error
	SetInvalidationFlag(ctx context.Context, key string, ttl time.Duration) error
}

// Resolver serves LinkProjection reads through cache A in front of store C.
type Resolver struct {
	cache               Cache
	store               Store
	names               keyname.Namer
	cacheTTL            time.Duration
	invalidationFlagTTL time.Duration
}

// New builds a Resolver.
func New(c Cache, store Store, names keyname.Namer, cacheTTL, invalidationFlagTTL time.Duration) *Resolver {
	return &Resolver{cache: c, store: store, names: names, cacheTTL: cacheTTL, invalidationFlagTTL: invalidationFlagTTL}
}

// GetURL resolves shortCode to its LinkProjection, per spec §4.J. A cache
// hit refreshes its TTL; a store hit populates the cache. Negative results
// (not found, inactive, expired) are never cached.
func (r *Resolver) GetURL(ctx context.Context, shortCode string) (model.LinkProjection, error) {
	key := r.names.URL(shortCode)

	var proj model.LinkProjection
	err := r.cache.Get(ctx, key, &proj)
	switch {
	case err == nil:
		obs.RedirectionsTotal.WithLabelValues("true").Inc()
		_ = r.cache.RefreshTTL(ctx, key, r.cacheTTL)
		r.flagDashboard(ctx, proj.OwnerID)
		return proj, nil
	case errors.Is(err, cache.ErrMiss):
		// fall through to the store
	default:
		// Cache faults degrade to a store read rather than failing the
		// caller outright.
	}

	proj, err = r.store.FindByShortCode(ctx, shortCode)
	if err != nil {
		return model.LinkProjection{}, err
	}

	obs.RedirectionsTotal.WithLabelValues("false").Inc()
	_ = r.cache.Set(ctx, key, proj, r.cacheTTL)
	r.flagDashboard(ctx, proj.OwnerID)
	return proj, nil
}

// flagDashboard sets the owner's dashboard invalidation flag. Failures are
// swallowed: the flag is an eventual-consistency signal, not part of the
// redirect's success path.
func (r *Resolver) flagDashboard(ctx context.Context, ownerID int64) {
	_ = r.cache.SetInvalidationFlag(ctx, r.names.DashboardInvalid(ownerID), r.invalidationFlagTTL)
}

// IncrementClickCount is a thin pass-through to the store, invoked by the
// click ingestor (4.K).
func (r *Resolver) IncrementClickCount(ctx context.Context, shortCode string) error {
	return r.store.IncrementClickCount(ctx, shortCode)
}
