package service

import (
	"context"
	"errors"

	"licitaflow/internal/util"
)

type ErrorType string

const (
	ErrorValidation ErrorType = "validation"
	ErrorTransport  ErrorType = "transport"
	ErrorTimeout    ErrorType = "timeout"
	ErrorService    ErrorType = "service"
	ErrorDecode     ErrorType = "decode"
	ErrorUnknown    ErrorType = "unknown"
)

// ClassifyError labels err for logs and metrics.
func ClassifyError(err error) ErrorType {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, util.ErrValidation):
		return ErrorValidation
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTimeout
	case errors.Is(err, util.ErrTransport):
		return ErrorTransport
	case errors.Is(err, util.ErrService):
		return ErrorService
	case errors.Is(err, util.ErrDecode):
		return ErrorDecode
	default:
		return ErrorUnknown
	}
}

// StatusCode returns the HTTP status carried by a service failure, or 0.
func StatusCode(err error) int {
	var we *util.WorkflowError
	if errors.As(err, &we) {
		return we.Status
	}
	return 0
}
