package handler

import (
	"net/http"

	"fooddupe/internal/apperr"
	"fooddupe/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Envelope is the response shape every endpoint returns. UI layers rely on
// the success flag and the error string.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

func respondMessage(c echo.Context, status int, data interface{}, message string) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler is the central error translator. Handlers and middleware
// forward errors untouched; this maps the taxonomy onto the envelope and
// logs internal causes server-side without leaking them to the client.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	log := logger.FromContext(c)

	status := statusOf(apperr.KindOf(err))
	message := apperr.MessageOf(err)

	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(he.Code)
		}
	}

	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Error(err))
		message = "internal server error"
	}

	if jsonErr := c.JSON(status, Envelope{Success: false, Error: message}); jsonErr != nil {
		log.Error("Failed to write error response", zap.Error(jsonErr))
	}
}
