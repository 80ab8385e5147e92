package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/pkg/errors"
)

// Response wraps all JSON API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: StatusSuccess,
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  StatusError,
		Message: message,
	}
}

// RespondWithSuccess sends a success envelope with the given status
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, NewSuccessResponse(data))
}

// RespondWithError sends an error envelope, taking the status from the error code
func RespondWithError(c *gin.Context, err error) {
	RespondWithStatus(c, errors.HTTPStatus(err), err)
}

// RespondWithStatus sends an error envelope with an explicit status. Internal
// error details are never exposed.
func RespondWithStatus(c *gin.Context, status int, err error) {
	message := "Internal server error"
	if appErr, ok := errors.As(err); ok && appErr.Code != errors.ErrInternal {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, NewErrorResponse(message))
}

// RespondWithMessage sends a bad request envelope with a plain message, used
// for request binding failures.
func RespondWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, NewErrorResponse(message))
}

// RespondWithText sends a plain-text body.
func RespondWithText(c *gin.Context, status int, text string) {
	c.String(status, text)
}
