// Package response renders the JSON envelope shared by every endpoint:
// {"success": true, "data": ...} or {"success": false, "error": "..."}.
package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Body is the envelope written for every response.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK writes a successful envelope carrying data.
func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Message writes a successful envelope carrying only a message.
func Message(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, Body{Success: true, Message: msg})
}

// Fail writes a failure envelope.
func Fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, Body{Success: false, Error: msg})
}

// ErrorHandler renders every error returned by a handler or middleware as a
// failure envelope. Errors that are not *echo.HTTPError become a generic 500.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := "internal server error"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			msg = fmt.Sprintf("%v", he.Message)
			if he.Internal != nil {
				logger.Error().Err(he.Internal).
					Str("request_id", fmt.Sprintf("%v", c.Get("request_id"))).
					Int("status", status).
					Msg(msg)
			}
		} else {
			logger.Error().Err(err).
				Str("request_id", fmt.Sprintf("%v", c.Get("request_id"))).
				Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = Fail(c, status, msg)
		}
		if err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}
