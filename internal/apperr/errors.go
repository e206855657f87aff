// Package apperr defines the error taxonomy shared by services and
// handlers: not-found, forbidden and field-validation failures. Handlers
// map these onto 404/403/422; anything else becomes a 500.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a missing record
	ErrNotFound = errors.New("introuvable")

	// ErrForbidden marks a role or ownership violation
	ErrForbidden = errors.New("non autorisé")
)

// NotFound wraps ErrNotFound with the user-facing message
func NotFound(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotFound)
}

// Forbidden wraps ErrForbidden with the user-facing message
func Forbidden(message string) error {
	return fmt.Errorf("%s: %w", message, ErrForbidden)
}

// Message strips the sentinel suffix for the JSON response
func Message(err error) string {
	for _, sentinel := range []error{ErrNotFound, ErrForbidden} {
		if errors.Is(err, sentinel) {
			msg := err.Error()
			suffix := ": " + sentinel.Error()
			if len(msg) > len(suffix) && msg[len(msg)-len(suffix):] == suffix {
				return msg[:len(msg)-len(suffix)]
			}
			return msg
		}
	}
	return err.Error()
}

// ValidationError carries per-field messages, keyed the way the frontends
// expect them (e.g. "lignes.0.quantite")
type ValidationError struct {
	Fields map[string][]string
}

// NewValidation returns an empty ValidationError ready to collect messages
func NewValidation() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a message for a field and returns the error for chaining
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// Empty reports whether no field failed
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}
