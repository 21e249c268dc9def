package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks failures caused by invalid caller input: unknown
	// workflow/stage ids, illegal stage targets, incomplete coverage.
	ErrValidation = errors.New("validation error")
	// ErrConflict marks state-machine transitions that are illegal from the
	// session's current status.
	ErrConflict = errors.New("conflict error")
	// ErrNotFound marks lookups of absent sessions, stages, or workflows.
	ErrNotFound = errors.New("not found")
	// ErrExternalSync marks failures at the external status-system boundary.
	// These are logged and retried asynchronously, never returned from a
	// local mutation.
	ErrExternalSync = errors.New("external sync error")
	// ErrTransient marks failures with no better classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorCode maps an error to the stable code reported in CLI result envelopes.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExternalSync):
		return "external_sync"
	default:
		return "internal"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
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
