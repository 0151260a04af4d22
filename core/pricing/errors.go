package pricing

import (
	"errors"
	"fmt"
)

// ErrorKind classifies prediction failures.
type ErrorKind string

const (
	// KindInvalidInput means the caller sent unusable features.
	KindInvalidInput ErrorKind = "invalid_input"
	// KindModelInvocation means the model failed on valid input.
	KindModelInvocation ErrorKind = "model_invocation"
	// KindModelUnavailable means no model is loaded.
	KindModelUnavailable ErrorKind = "model_unavailable"
)

// PredictionError is returned by Predictor implementations.
type PredictionError struct {
	Kind ErrorKind
	Err  error
}

func (e *PredictionError) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }

func (e *PredictionError) Unwrap() error { return e.Err }

func invalidInput(format string, args ...any) error {
	return &PredictionError{Kind: KindInvalidInput, Err: fmt.Errorf(format, args...)}
}

func invocationFailed(format string, args ...any) error {
	return &PredictionError{Kind: KindModelInvocation, Err: fmt.Errorf(format, args...)}
}

// ErrNoModel is wrapped in a KindModelUnavailable error when nothing has
// been loaded yet.
var ErrNoModel = errors.New("no model loaded")

// Unavailable wraps err as a KindModelUnavailable error.
func Unavailable(err error) error {
	return &PredictionError{Kind: KindModelUnavailable, Err: err}
}

// KindOf returns the kind of a prediction error, or KindModelInvocation for
// any other non-nil error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var pe *PredictionError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindModelInvocation
}
