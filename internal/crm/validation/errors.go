package validation

import (
	"fmt"
	"sort"
	"strings"
)

// Errors maps a request field to every message it failed with.
type Errors map[string][]string

func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Err returns e as an error, or nil when no field failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// First returns the first message of the alphabetically first field.
func (e Errors) First() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if len(e[f]) > 0 {
			return e[f][0]
		}
	}
	return ""
}

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msgs := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, ", ")))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
