// Package keyname is the single source of truth for cache key strings,
// following the teacher's CacheKey/URLCacheKey family (utils/cache/redis.go)
// generalized to the key families the shortener core needs.
package keyname

import "fmt"

// Namer derives deterministic cache keys of the form
// "{appPrefix}:{family}:{id}".
type Namer struct {
	AppPrefix string
}

// New returns a Namer using appPrefix, or "shortlink" when appPrefix is
// empty.
func New(appPrefix string) Namer {
	if appPrefix == "" {
		appPrefix = "shortlink"
	}
	return Namer{AppPrefix: appPrefix}
}

func (n Namer) key(family, id string) string {
	return fmt.Sprintf("%s:%s:%s", n.AppPrefix, family, id)
}

// URL is the cache key for a link's projection, keyed by short code.
func (n Namer) URL(shortCode string) string {
	return n.key("url", shortCode)
}

// Dashboard is the cache key for a cached dashboard payload, keyed by owner.
func (n Namer) Dashboard(ownerID int64) string {
	return n.key("dashboard", fmt.Sprintf("%d", ownerID))
}

// DashboardInvalid is the invalidation-flag key for an owner's dashboard.
func (n Namer) DashboardInvalid(ownerID int64) string {
	return n.key("dashboard_invalid", fmt.Sprintf("%d", ownerID))
}

// GeoIP is the cache key for a resolved geo-IP lookup.
func (n Namer) GeoIP(ip string) string {
	return n.key("geoip", ip)
}
