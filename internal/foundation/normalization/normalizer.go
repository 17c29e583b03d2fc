// Package normalization maps loosely written configuration values onto typed enums.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Enum normalizes case and surrounding whitespace before looking a value up.
type Enum[T comparable] struct {
	name   string
	values map[string]T
	keys   []string
}

// NewEnum builds a normalizer for the named enum from its accepted spellings.
func NewEnum[T comparable](name string, values map[string]T) *Enum[T] {
	e := &Enum[T]{name: name, values: make(map[string]T, len(values))}
	for k, v := range values {
		key := clean(k)
		e.values[key] = v
		e.keys = append(e.keys, key)
	}
	sort.Strings(e.keys)
	return e
}

// Normalize returns the matching value and whether raw was recognised.
func (e *Enum[T]) Normalize(raw string) (T, bool) {
	v, ok := e.values[clean(raw)]
	return v, ok
}

// Parse is Normalize with an error naming the accepted values.
func (e *Enum[T]) Parse(raw string) (T, error) {
	if v, ok := e.Normalize(raw); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q, valid options: %s", e.name, raw, strings.Join(e.keys, ", "))
}

// ValidValues lists the accepted spellings in sorted order.
func (e *Enum[T]) ValidValues() []string {
	return append([]string(nil), e.keys...)
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
