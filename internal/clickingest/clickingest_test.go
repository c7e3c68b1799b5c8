package clickingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-systems-lab/shortlink/internal/model"
	"github.com/go-systems-lab/shortlink/internal/uaparse"
)

type fakeIncrementer struct{ calls int }

func (f *fakeIncrementer) IncrementClickCount(ctx context.Context, shortCode string) error {
	f.calls++
	return nil
}

type fakeGeo struct {
	loc model.GeoLocation
	err error
}

func (f *fakeGeo) GetLocation(ctx context.Context, ip string) (model.GeoLocation, error) {
	if f.err != nil {
		return model.GeoLocation{}, f.err
	}
	return f.loc, nil
}

type fakeUA struct{ result uaparse.Result }

func (f *fakeUA) ParseUA(raw string) uaparse.Result { return f.result }

type fakeClickStore struct {
	inserted *model.ClickEvent
}

func (f *fakeClickStore) Insert(ctx context.Context, event *model.ClickEvent) error {
	f.inserted = event
	return nil
}

func TestTrackClick_HashesIPAndPopulatesEvent(t *testing.T) {
	incr := &fakeIncrementer{}
	geo := &fakeGeo{loc: model.GeoLocation{Country: "USA"}}
	ua := &fakeUA{result: uaparse.Result{DeviceType: model.DeviceDesktop, BrowserName: "Chrome"}}
	store := &fakeClickStore{}
	ing := New(incr, geo, ua, store, nil, "click_events", time.Second, nil)

	ing.TrackClick(context.Background(), Metadata{ClientIP: "8.8.8.8", UserAgent: "ua", ReferrerURL: "https://ref.example.com/x"}, "abc123")

	assert.Equal(t, 1, incr.calls)
	require.NotNil(t, store.inserted)
	assert.Len(t, store.inserted.IPAddressHash, 64)
	assert.Equal(t, "abc123", store.inserted.ShortCode)
	assert.Equal(t, "ref.example.com", store.inserted.ReferrerDomain)
	assert.Equal(t, model.DeviceDesktop, store.inserted.DeviceType)
	assert.Equal(t, "USA", store.inserted.Geo.Country)
}

func TestTrackClick_ContinuesWithoutGeoOnError(t *testing.T) {
	incr := &fakeIncrementer{}
	geo := &fakeGeo{err: assert.AnError}
	ua := &fakeUA{}
	store := &fakeClickStore{}
	ing := New(incr, geo, ua, store, nil, "click_events", time.Second, nil)

	ing.TrackClick(context.Background(), Metadata{ClientIP: "8.8.8.8"}, "abc123")

	require.NotNil(t, store.inserted)
	assert.Nil(t, store.inserted.Geo)
}

type fakePublisher struct {
	queue   string
	payload []byte
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, payload []byte) error {
	f.queue = queueName
	f.payload = payload
	return nil
}

func TestTrackClick_PublishesToClickEventsQueue(t *testing.T) {
	incr := &fakeIncrementer{}
	geo := &fakeGeo{}
	ua := &fakeUA{}
	store := &fakeClickStore{}
	pub := &fakePublisher{}
	ing := New(incr, geo, ua, store, pub, "click_events", time.Second, nil)

	ing.TrackClick(context.Background(), Metadata{ClientIP: "8.8.8.8"}, "abc123")

	assert.Equal(t, "click_events", pub.queue)
	assert.Contains(t, string(pub.payload), "abc123")
}

func TestTrackClick_NoReferrerLeavesDomainEmpty(t *testing.T) {
	incr := &fakeIncrementer{}
	geo := &fakeGeo{}
	ua := &fakeUA{}
	store := &fakeClickStore{}
	ing := New(incr, geo, ua, store, nil, "click_events", time.Second, nil)

	ing.TrackClick(context.Background(), Metadata{ClientIP: "8.8.8.8"}, "abc123")

	require.NotNil(t, store.inserted)
	assert.Empty(t, store.inserted.ReferrerDomain)
}
