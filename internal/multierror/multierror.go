// Package multierror combines several keyed errors into one.
package multierror

import (
	"fmt"
	"strings"
	"sync"
)

type Error[T comparable] struct {
	mu     sync.Mutex
	keys   []T
	errors map[T]error
}

func New[T comparable]() *Error[T] {
	return &Error[T]{
		errors: make(map[T]error),
	}
}

func (m *Error[T]) Error() string {
	parts := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		parts = append(parts, fmt.Sprintf("%v: %s", k, m.errors[k]))
	}

	return strings.Join(parts, "; ")
}

func (m *Error[T]) Unwrap() []error {
	errs := make([]error, 0, len(m.keys))
	for _, k := range m.keys {
		errs = append(errs, m.errors[k])
	}

	return errs
}

func (m *Error[T]) Add(key T, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.errors[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.errors[key] = err
}

func (m *Error[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.keys)
}

// Combined returns the error itself if it contains any errors, and nil
// otherwise, so it can be returned directly from a function.
func (m *Error[T]) Combined() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.keys) == 0 {
		return nil
	}

	return m
}
