package geoip

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alicebob/miniredis/v2"

	"github.com/go-systems-lab/shortlink/internal/cache"
	"github.com/go-systems-lab/shortlink/internal/keyname"
)

func TestIsPrivateIP(t *testing.T) {
	assert.True(t, IsPrivate("10.0.0.1"))
	assert.True(t, IsPrivate("192.168.1.1"))
	assert.True(t, IsPrivate("127.0.0.1"))
	assert.True(t, IsPrivate("172.16.5.4"))
	assert.False(t, IsPrivate("8.8.8.8"))
}

func newTestCache(t *testing.T) *cache.Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return cache.New(cache.Config{Host: mr.Host(), Port: mr.Port()})
}

func TestGetLocation_PrivateIPBypassesNetwork(t *testing.T) {
	c := newTestCache(t)
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	r := New(c, keyname.New("test"), srv.URL+"/json/%s", time.Second, time.Minute)
	loc, err := r.GetLocation(context.Background(), "192.168.1.5")
	require.NoError(t, err)
	assert.Equal(t, "Local", loc.Country)
	assert.False(t, called)
}

func TestGetLocation_CachesSuccessfulLookup(t *testing.T) {
	c := newTestCache(t)
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_ = json.NewEncoder(w).Encode(geoAPIResponse{Status: "success", Country: "USA", CountryCode: "US"})
	}))
	defer srv.Close()

	r := New(c, keyname.New("test"), srv.URL+"/json/%s", time.Second, time.Minute)
	ctx := context.Background()

	loc, err := r.GetLocation(ctx, "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, "US", loc.CountryCode)
	assert.Equal(t, 1, hits)

	loc2, err := r.GetLocation(ctx, "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, "US", loc2.CountryCode)
	assert.Equal(t, 1, hits, "second lookup should be served from cache")
}

func TestGetLocation_NonSuccessStatusIsExternalServiceError(t *testing.T) {
	c := newTestCache(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geoAPIResponse{Status: "fail", Message: "invalid query"})
	}))
	defer srv.Close()

	r := New(c, keyname.New("test"), srv.URL+"/json/%s", time.Second, time.Minute)
	_, err := r.GetLocation(context.Background(), "8.8.4.4")
	require.Error(t, err)
}
