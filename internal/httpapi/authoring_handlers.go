package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-systems-lab/shortlink/internal/apperr"
	"github.com/go-systems-lab/shortlink/internal/authoring"
	"github.com/go-systems-lab/shortlink/internal/model"
)

// Authorer is the subset of the authoring service (4.I) the request
// boundary needs.
type Authorer interface {
	Create(ctx context.Context, input authoring.CreateInput, ownerID int64) (*model.Link, error)
}

// CollisionCounter is the subset of the allocator (4.H) the admin metrics
// route needs.
type CollisionCounter interface {
	CollisionCount() uint64
}

// AuthoringAPI serves the authoring service's HTTP surface: link creation
// and the admin collision-count metric, per spec §6.
type AuthoringAPI struct {
	service    Authorer
	collisions CollisionCounter
}

// NewAuthoringAPI builds an AuthoringAPI.
func NewAuthoringAPI(service Authorer, collisions CollisionCounter) *AuthoringAPI {
	return &AuthoringAPI{service: service, collisions: collisions}
}

// createLinkRequest is the POST /api/url/create request body.
type createLinkRequest struct {
	OriginalURL string `json:"originalUrl" binding:"required"`
	CustomAlias string `json:"customAlias,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreateLink creates a new shortened link owned by the authenticated
// caller.
//
//	@Summary		Create a short link
//	@Description	Shortens originalUrl, optionally under a caller-supplied alias
//	@Tags			URL Management
//	@Accept			json
//	@Produce		json
//	@Param			request	body		createLinkRequest	true	"link creation request"
//	@Success		201	{object}	Envelope
//	@Failure		400,401,403	{object}	Envelope
//	@Router			/api/url/create [post]
func (a *AuthoringAPI) CreateLink(c *gin.Context) {
	var req createLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.InvalidInput, map[string]any{"reason": err.Error()})
		return
	}

	claim := claimFrom(c)
	link, err := a.service.Create(c.Request.Context(), authoring.CreateInput{
		OriginalURL: req.OriginalURL,
		CustomAlias: req.CustomAlias,
		Title:       req.Title,
		Description: req.Description,
	}, claim.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	ok(c, http.StatusCreated, "link created", link)
}

// CollisionMetrics reports the process-wide short-code collision counter.
//
//	@Summary		Get short-code collision count
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	Envelope
//	@Failure		401,403	{object}	Envelope
//	@Router			/api/url/metrics/collisions [get]
func (a *AuthoringAPI) CollisionMetrics(c *gin.Context) {
	ok(c, http.StatusOK, "ok", gin.H{"totalCollisions": a.collisions.CollisionCount()})
}
