package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrEmptyCart is returned when checkout is attempted with nothing to buy.
	ErrEmptyCart = errors.New("cart is empty")
)

// ValidationError carries field-scoped messages for the checkout form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid contact: " + strings.Join(parts, ", ")
}

// DanglingReferenceError reports a cart entry whose book is gone.
type DanglingReferenceError struct {
	BookID int64
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("cart references missing book %d", e.BookID)
}

func (e *DanglingReferenceError) Unwrap() error {
	return ErrNotFound
}
