package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrStaleState    = errors.New("stale state")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether a stage error should halt the whole run. Validation,
// stale-state, and configuration errors indicate a contract or setup problem no
// retry can fix; external tool and transient failures are fatal too once they
// reach the orchestrator, because each stage only surfaces them after its
// fallback path is exhausted.
func Fatal(err error) bool {
	return err != nil
}

// Kind returns the sentinel marker carried by err, or nil when err carries none.
func Kind(err error) error {
	for _, marker := range []error{
		ErrExternalTool,
		ErrValidation,
		ErrNotFound,
		ErrStaleState,
		ErrConfiguration,
		ErrTimeout,
		ErrTransient,
	} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

// ErrorDetails carries the decomposed parts of a wrapped service error.
type ErrorDetails struct {
	Kind    string
	Message string
	Cause   error
}

// Details decomposes an error produced by Wrap for structured logging and
// failure reporting. Unwrapped errors come back with an empty kind and their
// Error() text as the message.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Message: strings.TrimSpace(err.Error()), Cause: err}
	if marker := Kind(err); marker != nil {
		details.Kind = marker.Error()
		details.Message = strings.TrimSpace(strings.TrimPrefix(details.Message, marker.Error()+":"))
	}
	return details
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
