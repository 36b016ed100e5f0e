// Package httperr renders pkg/errors kinds as JSON HTTP responses.
package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"

	pkgerrors "user-reputation-service/pkg/errors"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

// Status maps an error kind to its HTTP status and machine-readable code.
func Status(err error) (int, string) {
	switch pkgerrors.Code(err) {
	case codes.InvalidArgument:
		return http.StatusBadRequest, "validation_error"
	case codes.NotFound:
		return http.StatusNotFound, "not_found"
	case codes.AlreadyExists:
		return http.StatusConflict, "already_exists"
	case codes.PermissionDenied:
		return http.StatusForbidden, "permission_denied"
	case codes.Unauthenticated:
		return http.StatusUnauthorized, "unauthenticated"
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests, "rate_limit_exceeded"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// Write aborts the request with the response matching err. Internal failures
// never expose their cause.
func Write(c *gin.Context, err error) {
	status, code := Status(err)

	resp := ErrorResponse{Error: code, Message: err.Error()}
	if status == http.StatusInternalServerError {
		resp.Message = "An internal error occurred"
	}

	var validation *pkgerrors.ValidationError
	if errors.As(err, &validation) {
		resp.Field = validation.Field
		resp.Message = validation.Message
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// BadRequest aborts with a 400 for malformed input that never reached a usecase.
func BadRequest(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: code, Message: message})
}
