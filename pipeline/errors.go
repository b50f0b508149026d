package pipeline

import (
	"context"
	"errors"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrMalformedDate    = errors.New("malformed date")
	ErrMalformedValue   = errors.New("malformed value")
	ErrDuplicateDate    = errors.New("duplicate date")
	ErrInvalidHorizon   = errors.New("invalid horizon")

	ErrEngineInitialization = errors.New("forecast engine initialization failed")
	ErrFit                  = errors.New("model fit failed")
	ErrPredict              = errors.New("model predict failed")

	ErrOverloaded = errors.New("too many forecasts in progress")
	ErrTimeout    = errors.New("forecast timed out")
)

// IsClientError reports whether err was caused by the request itself
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrMalformedDate) ||
		errors.Is(err, ErrMalformedValue) ||
		errors.Is(err, ErrDuplicateDate) ||
		errors.Is(err, ErrInvalidHorizon)
}

// IsRetryable reports whether the same request may succeed when sent again later
func IsRetryable(err error) bool {
	return errors.Is(err, ErrOverloaded) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}
