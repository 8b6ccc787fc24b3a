package httperr

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Kind classifies every failure a handler can surface to a client.
type Kind int

const (
	KindAuthentication Kind = iota // 401: no or invalid identity
	KindAuthorization              // 403: identity known, action forbidden
	KindValidation                 // 400: malformed input, field-batched
	KindConflict                   // 409: unique-constraint violation
	KindRateLimited                // 429
	KindNotFound                   // 404
	KindInternal                   // 500, generic, correlation id only
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Fields batches per-field validation messages so a client can fix
	// everything in one round trip.
	Fields map[string]string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Code + ": " + e.cause.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Status() int {
	switch e.Kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func Unauthenticated(code, message string) *Error {
	return &Error{Kind: KindAuthentication, Code: code, Message: message}
}

func Forbidden(code, message string) *Error {
	return &Error{Kind: KindAuthorization, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func RateLimited(code, message string) *Error {
	return &Error{Kind: KindRateLimited, Code: code, Message: message}
}

func Invalid(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// ValidationFields builds a batched validation failure from per-field
// messages.
func ValidationFields(fields map[string]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    "invalid_input",
		Message: "validation failed",
		Fields:  fields,
	}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal_error", Message: "internal error", cause: err}
}

// Write translates any error to its HTTP representation at the route
// boundary. Unexpected errors are logged with a correlation id and the
// client sees only that id, never internal detail.
func Write(c *gin.Context, err error) {
	var herr *Error
	if !errors.As(err, &herr) {
		herr = Internal(err)
	}

	if herr.Kind == KindInternal {
		correlationID := uuid.NewString()
		log.Printf("internal error [%s]: %v", correlationID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":          "internal error",
			"correlation_id": correlationID,
		})
		return
	}

	body := gin.H{"error": herr.Message, "code": herr.Code}
	if len(herr.Fields) > 0 {
		body["fields"] = herr.Fields
	}
	c.JSON(herr.Status(), body)
}
