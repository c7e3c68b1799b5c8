// Package geoip resolves a client IP to a location, bypassing private/
// loopback ranges and caching successful external lookups. Grounded on the
// teacher's RedirectService.isPrivateIP
// (services/redirect-svc/domain/resolver.go), generalized per spec §4.E
// from "reject private destination" to "skip geo lookup for private
// source IP".
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-systems-lab/shortlink/internal/apperr"
	"github.com/go-systems-lab/shortlink/internal/cache"
	"github.com/go-systems-lab/shortlink/internal/keyname"
	"github.com/go-systems-lab/shortlink/internal/model"
)

var privateBlocks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}

// IsPrivate reports whether ip falls in a loopback or RFC1918 private range.
func IsPrivate(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range privateBlocks {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

// Resolver looks up geo-IP data with a cache in front of an external
// service call.
type Resolver struct {
	cache      *cache.Cache
	names      keyname.Namer
	httpClient *http.Client
	endpoint   string
	ttl        time.Duration
}

// New builds a Resolver. endpoint is formatted with the target IP via
// fmt.Sprintf(endpoint, ip) — e.g. "http://ip-api.com/json/%s".
func New(c *cache.Cache, names keyname.Namer, endpoint string, timeout, ttl time.Duration) *Resolver {
	return &Resolver{
		cache:      c,
		names:      names,
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		ttl:        ttl,
	}
}

type geoAPIResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Zip         string  `json:"zip"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
	Query       string  `json:"query"`
}

// GetLocation implements the spec §4.E algorithm: bypass for private IPs,
// cache lookup with TTL refresh on hit, external call on miss.
func (r *Resolver) GetLocation(ctx context.Context, ip string) (model.GeoLocation, error) {
	if IsPrivate(ip) {
		return model.LocalGeoLocation(), nil
	}

	key := r.names.GeoIP(ip)

	var cached model.GeoLocation
	err := r.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		_ = r.cache.RefreshTTL(ctx, key, r.ttl)
		return cached, nil
	case err == cache.ErrMiss:
		// fall through to external lookup
	default:
		// Cache faults degrade to a fresh external lookup rather than
		// failing the caller outright.
	}

	loc, err := r.fetch(ctx, ip)
	if err != nil {
		return model.GeoLocation{}, err
	}

	_ = r.cache.Set(ctx, key, loc, r.ttl)
	return loc, nil
}

func (r *Resolver) fetch(ctx context.Context, ip string) (model.GeoLocation, error) {
	url := fmt.Sprintf(r.endpoint, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.GeoLocation{}, apperr.Wrap(apperr.ExternalService, err).WithContext("ip", ip)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return model.GeoLocation{}, apperr.Wrap(apperr.ExternalService, err).WithContext("ip", ip)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.GeoLocation{}, apperr.New(apperr.ExternalService).
			WithMessage("geo lookup failed").
			WithContext("ip", ip).
			WithContext("status", resp.StatusCode)
	}

	var body geoAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.GeoLocation{}, apperr.Wrap(apperr.ExternalService, err).WithContext("ip", ip)
	}
	if body.Status != "success" {
		return model.GeoLocation{}, apperr.New(apperr.ExternalService).
			WithMessage("geo lookup failed").
			WithContext("ip", ip).
			WithContext("reason", body.Message)
	}

	return model.GeoLocation{
		Country:     body.Country,
		CountryCode: body.CountryCode,
		Region:      body.Region,
		RegionName:  body.RegionName,
		City:        body.City,
		Zip:         body.Zip,
		Lat:         body.Lat,
		Lon:         body.Lon,
		Timezone:    body.Timezone,
		ISP:         body.ISP,
		Org:         body.Org,
		AS:          body.AS,
		Query:       body.Query,
	}, nil
}
