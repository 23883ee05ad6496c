package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks fatal setup problems: missing credentials,
	// unreachable store. Runs abort with a non-zero exit.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks an empty search or a scorer that selected nothing.
	// The row is skipped and stays eligible for the next stale pass.
	ErrNotFound = errors.New("not found")
	// ErrUpstream marks a failed catalog or enrichment API call.
	ErrUpstream = errors.New("upstream error")
	// ErrPersistence marks a failed store mutation.
	ErrPersistence = errors.New("persistence error")
	// ErrValidation marks bad input data, such as an empty source title.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrUpstream
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error should abort the whole run rather than
// skip the current row.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
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
