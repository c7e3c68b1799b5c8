// Package apperr defines the closed set of error kinds that cross component
// boundaries in the shortener core. Every downstream call either returns one
// of these or has its native error wrapped at the boundary closest to the
// cause.
package apperr

import (
	"fmt"
	"net/http"
)

// Kind is a stable, public error code.
type Kind string

const (
	URLNotFound        Kind = "URL_NOT_FOUND"
	URLExpired         Kind = "URL_EXPIRED"
	URLInactive        Kind = "URL_INACTIVE"
	Unauthorized       Kind = "UNAUTHORIZED"
	TokenExpired       Kind = "TOKEN_EXPIRED"
	InvalidToken       Kind = "INVALID_TOKEN"
	InvalidSigningKey  Kind = "INVALID_SIGNING_KEY"
	Forbidden          Kind = "FORBIDDEN"
	InvalidInput       Kind = "INVALID_INPUT"
	MissingField       Kind = "MISSING_REQUIRED_FIELD"
	InvalidFormat      Kind = "INVALID_FORMAT"
	CustomAliasTaken   Kind = "CUSTOM_ALIAS_TAKEN"
	DatabaseError      Kind = "DATABASE_ERROR"
	CacheError         Kind = "CACHE_ERROR"
	QueueError         Kind = "QUEUE_ERROR"
	ExternalService    Kind = "EXTERNAL_SERVICE_ERROR"
	RequestTimeout     Kind = "REQUEST_TIMEOUT"
	ServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	RateLimitExceeded  Kind = "RATE_LIMIT_EXCEEDED"
	Internal           Kind = "INTERNAL_SERVER_ERROR"
)

var statusByKind = map[Kind]int{
	URLNotFound:        http.StatusNotFound,
	URLExpired:         http.StatusGone,
	URLInactive:        http.StatusForbidden,
	Unauthorized:       http.StatusUnauthorized,
	TokenExpired:       http.StatusUnauthorized,
	InvalidToken:       http.StatusUnauthorized,
	InvalidSigningKey:  http.StatusUnauthorized,
	Forbidden:          http.StatusForbidden,
	InvalidInput:       http.StatusBadRequest,
	MissingField:       http.StatusBadRequest,
	InvalidFormat:      http.StatusBadRequest,
	CustomAliasTaken:   http.StatusBadRequest,
	DatabaseError:      http.StatusInternalServerError,
	CacheError:         http.StatusInternalServerError,
	QueueError:         http.StatusInternalServerError,
	ExternalService:    http.StatusServiceUnavailable,
	RequestTimeout:     http.StatusRequestTimeout,
	ServiceUnavailable: http.StatusServiceUnavailable,
	RateLimitExceeded:  http.StatusTooManyRequests,
	Internal:           http.StatusInternalServerError,
}

var defaultMessage = map[Kind]string{
	URLNotFound:        "short URL not found",
	URLExpired:         "short URL has expired",
	URLInactive:        "short URL is inactive",
	Unauthorized:       "authentication required",
	TokenExpired:       "token has expired",
	InvalidToken:       "token is invalid",
	InvalidSigningKey:  "token uses an unsupported signing algorithm",
	Forbidden:          "access to this resource is forbidden",
	InvalidInput:       "request input is invalid",
	MissingField:       "a required field is missing",
	InvalidFormat:      "value is not in the expected format",
	CustomAliasTaken:   "custom alias is already in use",
	DatabaseError:      "a storage error occurred",
	CacheError:         "a cache error occurred",
	QueueError:         "a messaging error occurred",
	ExternalService:    "an upstream service error occurred",
	RequestTimeout:     "request timed out",
	ServiceUnavailable: "service is temporarily unavailable",
	RateLimitExceeded:  "rate limit exceeded",
	Internal:           "an internal error occurred",
}

// AppError is the only error type that should cross a component boundary.
type AppError struct {
	Kind     Kind
	Message  string // public, user-visible
	detail   string // private, logged only
	cause    error
	Metadata map[string]any
}

func (e *AppError) Error() string {
	if e.detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.cause }

// Detail returns the private detail string, intended for server-side logs.
func (e *AppError) Detail() string { return e.detail }

// Status returns the HTTP status code associated with this error's Kind.
func (e *AppError) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New creates an AppError of the given kind with the kind's default message.
func New(kind Kind) *AppError {
	return &AppError{Kind: kind, Message: defaultMessage[kind]}
}

// Wrap attaches a cause to a clone of e, for logging, without altering the
// public message.
func (e *AppError) Wrap(cause error) *AppError {
	clone := *e
	clone.cause = cause
	if cause != nil {
		clone.detail = cause.Error()
	}
	clone.Metadata = cloneMeta(e.Metadata)
	return &clone
}

// WithContext returns a clone of e with k/v merged into its metadata.
func (e *AppError) WithContext(k string, v any) *AppError {
	clone := *e
	clone.Metadata = cloneMeta(e.Metadata)
	clone.Metadata[k] = v
	return &clone
}

// WithMessage returns a clone of e with its public message replaced.
func (e *AppError) WithMessage(msg string) *AppError {
	clone := *e
	clone.Message = msg
	clone.Metadata = cloneMeta(e.Metadata)
	return &clone
}

func cloneMeta(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Wrap builds a DATABASE_ERROR/CACHE_ERROR/... AppError from a native error
// for the given kind in one step. Convenience for store/cache boundaries.
func Wrap(kind Kind, cause error) *AppError {
	return New(kind).Wrap(cause)
}

// As extracts an *AppError from err, following Unwrap chains.
func As(err error) (*AppError, bool) {
	var ae *AppError
	for err != nil {
		if v, ok := err.(*AppError); ok {
			ae = v
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ae, ae != nil
}
