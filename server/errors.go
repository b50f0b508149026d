package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aouyang1/go-forecast-api/pipeline"
)

var ErrRateLimited = errors.New("rate limit exceeded")

type ErrorResponse struct {
	Detail string `json:"detail"`
}

// StatusOf maps an error to its http status code
func StatusOf(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, ErrInvalidRequest), pipeline.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, pipeline.ErrOverloaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, pipeline.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &he):
		return he.Code
	}
	return http.StatusInternalServerError
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := StatusOf(err)
	detail := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) && status == he.Code {
		detail = fmt.Sprint(he.Message)
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error().
			Err(err).
			Int("status", status).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("request failed")
	}
	if pipeline.IsRetryable(err) || errors.Is(err, ErrRateLimited) {
		c.Response().Header().Set("Retry-After", "1")
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, ErrorResponse{Detail: detail})
	}
	if werr != nil {
		s.logger.Error().Err(werr).Msg("unable to write error response")
	}
}
