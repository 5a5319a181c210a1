package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNetwork marks connectivity and transport timeout failures. They are
	// retried only by the next natural poll tick or an explicit user retry.
	ErrNetwork = errors.New("network error")
	// ErrValidation marks requests rejected before any network call.
	ErrValidation = errors.New("validation error")
	// ErrCapacity marks activation requests that exceed free slots or
	// inactive jobs.
	ErrCapacity = errors.New("capacity error")
	// ErrStateConflict marks commands issued against a job in an ineligible
	// state.
	ErrStateConflict = errors.New("state conflict")
	// ErrBackend marks 4xx/5xx responses from the store.
	ErrBackend = errors.New("backend error")
	// ErrTimeout marks operations that exhausted their deadline or ceiling.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrBackend
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// RejectedBeforeDispatch reports whether the error was raised by a
// client-side precondition, meaning no request reached the backend.
func RejectedBeforeDispatch(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrCapacity) ||
		errors.Is(err, ErrStateConflict)
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
