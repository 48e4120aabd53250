package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrValidationFailed is returned when caller input is malformed.
	ErrValidationFailed = errors.New("validation failed")
	// ErrQuizNotFound indicates the referenced quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrForbidden is returned when the caller does not own the quiz it tries to mutate.
	ErrForbidden = errors.New("not the owner of this quiz")
	// ErrDuplicateIdentity is returned when registering an email that is already taken.
	ErrDuplicateIdentity = errors.New("email is already taken")
	// ErrAuthenticationFailed indicates missing or wrong credentials.
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// ValidationError carries per-field messages and matches ErrValidationFailed with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidationFailed.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Add records a message for field, keeping the first one if the field already failed.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// OrNil returns nil when no field failed so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
