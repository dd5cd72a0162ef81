package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// StatusFor maps an application error code to an HTTP status.
func StatusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrBadRequest:
		return http.StatusBadRequest
	case apperrors.ErrValidationRejected:
		return http.StatusUnprocessableEntity
	case apperrors.ErrEmptyQueue, apperrors.ErrConflict:
		return http.StatusConflict
	case apperrors.ErrPersistenceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as an error response. Client errors carry their
// causes; server errors are reported without internals and left on the
// context for the access log.
func RespondError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	status := StatusFor(code)

	resp := NewErrorResponse(err.Error())
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		resp.Message = http.StatusText(status)
	} else {
		var appErr *apperrors.AppError
		if apperrors.As(err, &appErr) {
			resp.Message = appErr.Message
		}
		for _, cause := range apperrors.Causes(err) {
			resp.Errors = append(resp.Errors, cause.Error())
		}
	}
	c.JSON(status, resp)
}

// ParseID reads a positive integer path parameter.
func ParseID(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequest("invalid "+name, err)
	}
	return id, nil
}

// QueryID reads an optional positive integer query parameter; zero means
// absent.
func QueryID(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequest("invalid "+name, err)
	}
	return id, nil
}
