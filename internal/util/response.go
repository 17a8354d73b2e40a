package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/minglehq/backend/internal/errors"
	"github.com/minglehq/backend/internal/logger"
	"go.uber.org/zap"
)

// Envelope is the uniform response body for every route. On success the
// error field is null; on failure data is null and error carries the code.
type Envelope struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Error   interface{} `json:"error"`
}

// RespondSuccess sends a success envelope with the given payload
func RespondSuccess(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{
		Message: message,
		Data:    data,
		Error:   nil,
	})
}

// RespondOK sends a 200 success envelope
func RespondOK(c *gin.Context, message string, data interface{}) {
	RespondSuccess(c, http.StatusOK, message, data)
}

// RespondCreated sends a 201 success envelope
func RespondCreated(c *gin.Context, message string, data interface{}) {
	RespondSuccess(c, http.StatusCreated, message, data)
}

// RespondWithAPIError sends a failure envelope for a structured API error
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	if apiErr.Status >= http.StatusInternalServerError {
		logger.Log.Error("API error",
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message),
			zap.String("field", apiErr.Field),
			zap.Int("status", apiErr.Status),
		)
	} else if apiErr.Status >= http.StatusBadRequest {
		logger.Log.Warn("API error",
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message),
			zap.String("field", apiErr.Field),
		)
	}

	c.JSON(apiErr.Status, Envelope{
		Message: apiErr.Message,
		Data:    nil,
		Error:   string(apiErr.Code),
	})
}

// RespondError maps any error to the failure envelope. Unrecognized errors
// become opaque 500s so storage details never leak to clients.
func RespondError(c *gin.Context, err error) {
	if apiErr, ok := errors.AsAPIError(err); ok {
		RespondWithAPIError(c, apiErr)
		return
	}
	logger.ErrorWithFields("unhandled error", err)
	RespondWithAPIError(c, errors.InternalError("internal server error"))
}

// RespondUnauthorized sends a 401 failure envelope
func RespondUnauthorized(c *gin.Context, message ...string) {
	msg := "user not authenticated"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, errors.Unauthorized(msg))
}

// RespondNotFound sends a 404 failure envelope
func RespondNotFound(c *gin.Context, resource string) {
	RespondWithAPIError(c, errors.NotFound(resource))
}

// RespondForbidden sends a 403 failure envelope
func RespondForbidden(c *gin.Context, message ...string) {
	msg := "forbidden"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, errors.Forbidden(msg))
}

// RespondValidationError sends a 400 failure envelope for bad input
func RespondValidationError(c *gin.Context, field, message string) {
	RespondWithAPIError(c, errors.ValidationError(field, message))
}

// RespondConflict sends a 400 failure envelope for a duplicate unique field
func RespondConflict(c *gin.Context, field string) {
	RespondWithAPIError(c, errors.Conflict(field))
}

// RespondInternalError sends a 500 failure envelope
func RespondInternalError(c *gin.Context, message string) {
	if message == "" {
		message = "internal server error"
	}
	RespondWithAPIError(c, errors.InternalError(message))
}
