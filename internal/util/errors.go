package util

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrTransport      = errors.New("transport error")
	ErrService        = errors.New("service error")
	ErrDecode         = errors.New("decode error")
	ErrMetadataDecode = errors.New("metadata decode error")

	ErrNoDocument = fmt.Errorf("%w: no document selected", ErrValidation)
	ErrNoLicID    = fmt.Errorf("%w: licitacion id is required", ErrValidation)
	ErrBusy       = errors.New("a workflow run is already in flight")
)

// WorkflowError is a failure of one remote operation. Message is safe to show
// to the user; Err keeps the underlying cause for logs.
type WorkflowError struct {
	Kind    error
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *WorkflowError) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

func (e *WorkflowError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NewWorkflowError(kind error, op, message string, cause error) *WorkflowError {
	return &WorkflowError{Kind: kind, Op: op, Message: message, Err: cause}
}

// UserMessage renders err for the presentation layer: the operation plus a
// short description, never a raw cause chain.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var we *WorkflowError
	if errors.As(err, &we) {
		return ShortMessage(we.Error(), 240)
	}
	return ShortMessage(err.Error(), 240)
}
