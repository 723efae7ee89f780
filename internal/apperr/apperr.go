// Package apperr defines the error taxonomy shared by the HTTP handlers and
// maps it onto status codes and JSON bodies.
package apperr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/project-auth/internal/logging"
)

// Kind classifies an application error.
type Kind string

const (
	Unauthenticated     Kind = "unauthenticated"
	AuthorizationDenied Kind = "authorization_denied"
	ValidationFailed    Kind = "validation_failed"
	NotFound            Kind = "not_found"
	MethodNotSupported  Kind = "method_not_supported"
	AlreadyExists       Kind = "already_exists"
	RateLimited         Kind = "rate_limited"
	InternalFailure     Kind = "internal_failure"
)

const genericInternalMessage = "internal server error"

// Error is an application error with a client-safe message. Cause is logged
// but never written to the response.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func NewUnauthenticated(message string) *Error {
	return New(Unauthenticated, message)
}

func NewAuthorizationDenied(message string) *Error {
	return New(AuthorizationDenied, message)
}

func NewValidation(message string) *Error {
	return New(ValidationFailed, message)
}

func NewNotFound(message string) *Error {
	return New(NotFound, message)
}

func NewAlreadyExists(message string) *Error {
	return New(AlreadyExists, message)
}

// Internal wraps an unexpected fault. The client only ever sees a generic message.
func Internal(operation string, cause error) *Error {
	return &Error{Kind: InternalFailure, Message: operation, Cause: cause}
}

// KindOf reports the Kind of err; anything not produced by this package is an
// internal failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return InternalFailure
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status maps err onto an HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case Unauthenticated:
		return http.StatusUnauthorized
	case AuthorizationDenied:
		return http.StatusForbidden
	case ValidationFailed, AlreadyExists:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case MethodNotSupported:
		return http.StatusMethodNotAllowed
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to return to a caller.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != InternalFailure {
		return e.Message
	}
	return genericInternalMessage
}

// Respond writes err as {"message": ...} and aborts the chain. Internal
// failures are logged with their cause.
func Respond(c *gin.Context, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("request failed",
			slog.String("path", c.Request.URL.Path),
			slog.String("method", c.Request.Method),
			slog.Any("error", err),
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"message": PublicMessage(err)})
}
