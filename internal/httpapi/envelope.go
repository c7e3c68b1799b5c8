// Package httpapi maps HTTP requests onto the core services, grounded on
// the teacher's services/rest-api-svc/handler/handler.go (gin handlers,
// swagger doc comments at the same density, structured logging per
// request) generalized from the teacher's bespoke per-endpoint response
// structs to the spec's uniform envelope.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/go-systems-lab/shortlink/internal/apperr"
)

// Envelope is the uniform response shape every route returns.
type Envelope struct {
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	Data      any           `json:"data,omitempty"`
	Error     *ErrorPayload `json:"error,omitempty"`
	Timestamp string        `json:"timestamp"`
}

// ErrorPayload carries the catalogued error code, its public message, and
// any attached metadata. The private cause never leaves the process.
type ErrorPayload struct {
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError translates err to an HTTP status and envelope. AppErrors map
// to their declared status and code; any other error is treated as
// INTERNAL_SERVER_ERROR so a driver error string never reaches the client.
func writeError(c *gin.Context, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		ae = apperr.Wrap(apperr.Internal, err)
	}

	c.JSON(ae.Status(), Envelope{
		Success: false,
		Message: ae.Message,
		Error: &ErrorPayload{
			Code:     string(ae.Kind),
			Message:  ae.Message,
			Metadata: ae.Metadata,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// fail short-circuits a request with a locally constructed AppError,
// bypassing a downstream call entirely (used for request-boundary
// validation such as an overlong shortUrl or a malformed bearer header).
func fail(c *gin.Context, kind apperr.Kind, context map[string]any) {
	ae := apperr.New(kind)
	for k, v := range context {
		ae = ae.WithContext(k, v)
	}
	writeError(c, ae)
}
