// Package clickingest enriches and records one click against a resolved
// short code: click-count increment, IP hashing, UA/referrer parsing, and a
// bounded-deadline geo lookup. Grounded on the teacher's
// RedirectService.TrackClick fire-and-forget goroutine
// (services/redirect-svc/domain/resolver.go), generalized to fan out to the
// click store, geo resolver, and UA parser instead of only incrementing a
// counter.
package clickingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-systems-lab/shortlink/internal/model"
	"github.com/go-systems-lab/shortlink/internal/uaparse"
)

// Incrementer is the subset of the redirect resolver (4.J) the ingestor
// needs.
type Incrementer interface {
	IncrementClickCount(ctx context.Context, shortCode string) error
}

// GeoResolver is the subset of the geo-IP resolver (4.E) the ingestor needs.
type GeoResolver interface {
	GetLocation(ctx context.Context, ip string) (model.GeoLocation, error)
}

// UAParser is the subset of the UA parser (4.F) the ingestor needs.
// ExtractDomain is stateless and called directly as a package function.
type UAParser interface {
	ParseUA(raw string) uaparse.Result
}

// ClickStore is the subset of the click store (4.D) the ingestor needs.
type ClickStore interface {
	Insert(ctx context.Context, event *model.ClickEvent) error
}

// Publisher is the subset of the RPC client (4.G) used to fan the enriched
// click payload out onto the click_events queue for the external analytics
// consumer behind the dashboard RPC, per spec §6.
type Publisher interface {
	Publish(ctx context.Context, queueName string, payload []byte) error
}

// Ingestor runs the fire-and-forget click-enrichment pipeline.
type Ingestor struct {
	resolver         Incrementer
	geo              GeoResolver
	ua               UAParser
	store            ClickStore
	publisher        Publisher
	clickEventsQueue string
	timeout          time.Duration
	log              *logrus.Entry
}

// New builds an Ingestor. timeout bounds the whole pipeline, per spec §5's
// clickTrackingTimeout. publisher may be nil, in which case the click_events
// queue fan-out is skipped (useful in tests that only care about D).
func New(resolver Incrementer, geo GeoResolver, ua UAParser, store ClickStore, publisher Publisher, clickEventsQueue string, timeout time.Duration, log *logrus.Entry) *Ingestor {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Ingestor{resolver: resolver, geo: geo, ua: ua, store: store, publisher: publisher, clickEventsQueue: clickEventsQueue, timeout: timeout, log: log}
}

// Metadata is the raw click context gathered at the request boundary.
type Metadata struct {
	ClientIP    string
	UserAgent   string
	ReferrerURL string
}

// TrackClick runs the full pipeline described in spec §4.K. It never
// returns an error: every failure is logged and swallowed, because a
// caller awaiting this under a detached goroutine has nothing useful to do
// with a returned error.
func (i *Ingestor) TrackClick(ctx context.Context, metadata Metadata, shortCode string) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	// IncrementClickCount and the geo lookup share the same bounded
	// deadline but run concurrently so neither one's latency eats into the
	// other's budget, per spec's "Concurrently (but bounded to a single
	// logical deadline)" requirement.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := i.resolver.IncrementClickCount(ctx, shortCode); err != nil {
			i.log.WithError(err).WithField("shortCode", shortCode).Warn("increment click count failed")
		}
	}()

	var geoLoc *model.GeoLocation
	wg.Add(1)
	go func() {
		defer wg.Done()
		loc, err := i.geo.GetLocation(ctx, metadata.ClientIP)
		if err != nil {
			i.log.WithError(err).WithField("shortCode", shortCode).Info("geo lookup failed, continuing without geo")
			return
		}
		geoLoc = &loc
	}()
	wg.Wait()

	sum := sha256.Sum256([]byte(metadata.ClientIP))
	ipHash := hex.EncodeToString(sum[:])

	ua := i.ua.ParseUA(metadata.UserAgent)
	referrerDomain := ""
	if metadata.ReferrerURL != "" {
		referrerDomain = uaparse.ExtractDomain(metadata.ReferrerURL)
	}

	event := &model.ClickEvent{
		ClickedAt:      time.Now().UTC(),
		ShortCode:      shortCode,
		IPAddressHash:  ipHash,
		UserAgent:      metadata.UserAgent,
		ReferrerURL:    metadata.ReferrerURL,
		ReferrerDomain: referrerDomain,
		DeviceType:     ua.DeviceType,
		BrowserName:    ua.BrowserName,
		BrowserVersion: ua.BrowserVersion,
		OSName:         ua.OSName,
		OSVersion:      ua.OSVersion,
		IsBot:          ua.IsBot,
		Geo:            geoLoc,
	}

	if err := i.store.Insert(ctx, event); err != nil {
		i.log.WithError(err).WithField("shortCode", shortCode).Warn("click event insert failed")
	}

	if i.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		i.log.WithError(err).WithField("shortCode", shortCode).Warn("click event marshal failed")
		return
	}
	if err := i.publisher.Publish(ctx, i.clickEventsQueue, payload); err != nil {
		i.log.WithError(err).WithField("shortCode", shortCode).Warn("click event publish failed")
	}
}
