package httpapi

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"github.com/go-systems-lab/shortlink/internal/apperr"
	"github.com/go-systems-lab/shortlink/internal/model"
	"github.com/go-systems-lab/shortlink/internal/obs"
)

const claimsContextKey = "userClaim"

// TokenVerifier is the subset of the token verifier (4.M) the request
// boundary needs.
type TokenVerifier interface {
	Validate(raw string) (model.UserClaim, error)
}

// RequireBearer enforces the "Authorization: Bearer <token>" scheme and
// stashes the verified claim in the request context. A missing or
// malformed header never reaches the verifier: it fails UNAUTHORIZED
// directly, per spec §4.O. This middleware must run before any role
// guard — role enforcement presupposes a validated token.
func RequireBearer(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			fail(c, apperr.Unauthorized, nil)
			c.Abort()
			return
		}

		raw := strings.TrimPrefix(header, prefix)
		claim, err := verifier.Validate(raw)
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}

		c.Set(claimsContextKey, claim)
		c.Next()
	}
}

// RequireRole rejects requests whose verified claim's role is not among
// allowed. Must be registered after RequireBearer.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claim := claimFrom(c)
		for _, role := range allowed {
			if claim.Role == role {
				c.Next()
				return
			}
		}
		fail(c, apperr.Forbidden, map[string]any{"role": claim.Role})
		c.Abort()
	}
}

// CORS builds the permissive-by-config CORS middleware the teacher's
// main.go inlines, parameterized on the CORS_ALLOW_* environment trio
// instead of the teacher's hard-coded "*"/"GET, POST, PUT, DELETE, OPTIONS".
func CORS(allowOrigins, allowMethods, allowHeaders string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowOrigins)
		c.Header("Access-Control-Allow-Methods", allowMethods)
		c.Header("Access-Control-Allow-Headers", allowHeaders)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// Tracing starts a span per inbound request, grounded on the teacher's
// inline tracing middleware in services/rest-api-svc/cmd/main.go: extract
// any upstream trace context, start an HTTP span, record status on exit.
func Tracing(tracer *obs.Tracer, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		ctx, span := tracer.StartHTTPSpan(ctx, c.Request.Method, c.FullPath())
		defer span.End()

		span.SetAttributes(
			attribute.String("http.url", c.Request.URL.String()),
			attribute.String("http.user_agent", c.Request.UserAgent()),
			attribute.String("http.remote_addr", c.ClientIP()),
			attribute.String("service.name", serviceName),
		)

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 400 {
			obs.RecordError(span, fmt.Errorf("HTTP %d", status))
		} else {
			obs.RecordSuccess(span)
		}
	}
}

func claimFrom(c *gin.Context) model.UserClaim {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return model.UserClaim{}
	}
	claim, _ := v.(model.UserClaim)
	return claim
}
