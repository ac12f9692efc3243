package plugbot

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Sentinel errors for common host error conditions. Use errors.Is() to
// check for them.
var (
	// ErrClosed indicates the host has been shut down and can no longer
	// serve lifecycle operations.
	ErrClosed = errors.New("host is closed")

	// ErrInvalidConfig indicates the host configuration is invalid or
	// incomplete.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Error kinds categorize errors by their type.
const (
	// KindNotFound represents errors where a resource was not found.
	KindNotFound = "not_found"

	// KindValidation represents errors related to input validation.
	KindValidation = "validation"

	// KindConfiguration represents errors related to configuration.
	KindConfiguration = "configuration"

	// KindExecution represents errors that occur while driving plugin
	// lifecycle transitions.
	KindExecution = "execution"

	// KindInternal represents internal host errors.
	KindInternal = "internal"
)

// Error is a structured error that wraps underlying errors with the
// operation that failed and the category of failure.
//
// Error implements the error interface and supports unwrapping, making it
// compatible with errors.Is() and errors.As().
type Error struct {
	// Op is the operation that failed (e.g., "Host.StartAll").
	Op string

	// Kind categorizes the error (e.g., KindNotFound, KindValidation).
	Kind string

	// Err is the underlying error.
	Err error

	// Context provides additional debugging information (optional).
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("plugbot: %s: %s", e.Op, e.Kind)
	}
	if len(e.Context) > 0 {
		return fmt.Sprintf("plugbot: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}
	return fmt.Sprintf("plugbot: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches either another *Error with the same Kind (and Op, when the
// target specifies one) or the underlying error chain.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}
	return errors.Is(e.Err, target)
}

// WithContext returns a copy of the error with the provided context added.
func (e *Error) WithContext(ctx map[string]any) *Error {
	out := *e
	if out.Context == nil {
		out.Context = make(map[string]any, len(ctx))
	}
	for k, v := range ctx {
		out.Context[k] = v
	}
	return &out
}

// NewNotFoundError creates an Error with KindNotFound.
func NewNotFoundError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindNotFound, Err: err}
}

// NewValidationError creates an Error with KindValidation.
func NewValidationError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindValidation, Err: err}
}

// NewConfigurationError creates an Error with KindConfiguration.
func NewConfigurationError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindConfiguration, Err: err}
}

// NewExecutionError creates an Error with KindExecution.
func NewExecutionError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindExecution, Err: err}
}

// NewInternalError creates an Error with KindInternal.
func NewInternalError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindInternal, Err: err}
}

// CloseWithLog closes the resource and logs any error at warning level.
// Intended for defer statements so cleanup errors are not silently
// dropped. If logger is nil, slog.Default() is used.
func CloseWithLog(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := closer.Close(); err != nil {
		logger.Warn("failed to close resource",
			slog.String("resource", name),
			slog.Any("error", err))
	}
}
