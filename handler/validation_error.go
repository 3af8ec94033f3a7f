package handler

import (
	"maps"
	"net/url"
	"slices"
	"strings"
)

// ValidationError collects per-field messages. It renders as 400 with the
// messages under error.details.
type ValidationError url.Values

func NewValidationError() ValidationError {
	return make(ValidationError)
}

func (e ValidationError) Add(field, message string) {
	url.Values(e).Add(field, message)
}

func (e ValidationError) Has(field string) bool {
	return len(e[field]) > 0
}

func (e ValidationError) IsEmpty() bool {
	return len(e) == 0
}

// Err returns nil when no field failed, so callers can return it directly.
func (e ValidationError) Err() error {
	if e.IsEmpty() {
		return nil
	}
	return e
}

// Error lists the first message of each field in field order.
func (e ValidationError) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e))
	for _, field := range slices.Sorted(maps.Keys(e)) {
		if msgs := e[field]; len(msgs) > 0 {
			parts = append(parts, field+": "+msgs[0])
		}
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
