package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-systems-lab/shortlink/internal/apperr"
	"github.com/go-systems-lab/shortlink/internal/clickingest"
	"github.com/go-systems-lab/shortlink/internal/dashboard"
	"github.com/go-systems-lab/shortlink/internal/model"
)

const maxShortURLLength = 50

// Redirector is the subset of the redirect resolver (4.J) the request
// boundary needs.
type Redirector interface {
	GetURL(ctx context.Context, shortCode string) (model.LinkProjection, error)
}

// ClickTracker is the subset of the click ingestor (4.K) the request
// boundary needs.
type ClickTracker interface {
	TrackClick(ctx context.Context, metadata clickingest.Metadata, shortCode string)
}

// DashboardReader is the subset of the dashboard service (4.L) the request
// boundary needs.
type DashboardReader interface {
	GetDashboard(ctx context.Context, ownerID int64) (dashboard.Response, error)
}

// RedirectAPI serves the redirect service's HTTP surface: health, redirect
// resolution, link info, and the dashboard read, per spec §6.
type RedirectAPI struct {
	resolver    Redirector
	tracker     ClickTracker
	dashboard   DashboardReader
	serviceName string
	version     string
}

// NewRedirectAPI builds a RedirectAPI.
func NewRedirectAPI(resolver Redirector, tracker ClickTracker, dashboard DashboardReader, serviceName, version string) *RedirectAPI {
	return &RedirectAPI{resolver: resolver, tracker: tracker, dashboard: dashboard, serviceName: serviceName, version: version}
}

// Health reports liveness. Unlike every other route, its body is not
// wrapped in the uniform envelope, per spec §6's literal {status,service,
// version} shape.
func (a *RedirectAPI) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "UP",
		"service": a.serviceName,
		"version": a.version,
	})
}

// Redirect resolves a short code to its original URL and, on success,
// spawns click ingestion on a context detached from the request so a
// client disconnect never cancels analytics.
//
//	@Summary		Resolve a short URL
//	@Description	Resolves shortUrl to its original URL and records the click
//	@Tags			Redirect
//	@Produce		json
//	@Param			shortUrl	path	string	true	"short code"
//	@Success		200	{object}	Envelope
//	@Failure		400,404,410,403	{object}	Envelope
//	@Router			/r/{shortUrl} [get]
func (a *RedirectAPI) Redirect(c *gin.Context) {
	shortCode := c.Param("shortUrl")
	if !validShortURL(shortCode) {
		fail(c, apperr.InvalidInput, map[string]any{"shortUrl": shortCode})
		return
	}

	proj, err := a.resolver.GetURL(c.Request.Context(), shortCode)
	if err != nil {
		writeError(c, err)
		return
	}

	metadata := clickingest.Metadata{
		ClientIP:    c.ClientIP(),
		UserAgent:   c.GetHeader("User-Agent"),
		ReferrerURL: c.GetHeader("Referer"),
	}
	go a.tracker.TrackClick(context.Background(), metadata, shortCode)

	ok(c, http.StatusOK, "resolved", gin.H{"originalUrl": proj.OriginalURL})
}

// Info resolves a short code without recording a click, for callers that
// only need to preview the destination.
//
//	@Summary		Look up a short URL's destination
//	@Tags			Redirect
//	@Produce		json
//	@Param			shortUrl	path	string	true	"short code"
//	@Success		200	{object}	Envelope
//	@Router			/api/info/{shortUrl} [get]
func (a *RedirectAPI) Info(c *gin.Context) {
	shortCode := c.Param("shortUrl")
	if !validShortURL(shortCode) {
		fail(c, apperr.InvalidInput, map[string]any{"shortUrl": shortCode})
		return
	}

	proj, err := a.resolver.GetURL(c.Request.Context(), shortCode)
	if err != nil {
		writeError(c, err)
		return
	}

	ok(c, http.StatusOK, "ok", gin.H{"originalUrl": proj.OriginalURL})
}

// Dashboard serves the authenticated caller's own analytics.
//
//	@Summary		Get the caller's analytics dashboard
//	@Tags			Dashboard
//	@Produce		json
//	@Success		200	{object}	Envelope
//	@Failure		401,503	{object}	Envelope
//	@Router			/api/dashboard [get]
func (a *RedirectAPI) Dashboard(c *gin.Context) {
	claim := claimFrom(c)

	resp, err := a.dashboard.GetDashboard(c.Request.Context(), claim.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	message := "ok"
	if resp.Limited {
		message = "dashboard data is rate limited upstream; values may be stale"
	}

	ok(c, http.StatusOK, message, gin.H{
		"total_link":    resp.TotalLinks,
		"total_click":   resp.TotalClicks,
		"uniq_visitors": resp.UniqVisitors,
		"top_links":     resp.TopLinks,
		"stat_links":    resp.StatLinks,
	})
}

func validShortURL(shortCode string) bool {
	return shortCode != "" && len(shortCode) <= maxShortURLLength
}
