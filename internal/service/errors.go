package service

import (
	"errors"
	"sort"
	"strings"
)

// Domain errors. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrMissingField      = errors.New("required field missing")
	ErrInvalidCount      = errors.New("question count must not be negative")
	ErrMissingExamID     = errors.New("exam_id is required")
	ErrInvalidExamID     = errors.New("exam_id is not a valid id")
	ErrExamNotFound      = errors.New("exam not found")
	ErrExamNotReady      = errors.New("exam questions are not ready")
	ErrExamAlreadyScored = errors.New("exam has already been scored")
	ErrExamNotFailed     = errors.New("exam generation has not failed")
	ErrNotExamOwner      = errors.New("exam belongs to another user")
	ErrCreditNotFound    = errors.New("credit balance not found")
	ErrCreditExists      = errors.New("credit balance already exists")
	ErrPersistence       = errors.New("failed to persist")
)

// ValidationError carries per-field messages for a rejected input.
// It unwraps to the sentinel describing the failure.
type ValidationError struct {
	Err    error
	Fields map[string]string
}

func newValidationError(err error, field, msg string) *ValidationError {
	return &ValidationError{Err: err, Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return e.Err.Error() + ": " + strings.Join(keys, ", ")
}

func (e *ValidationError) Unwrap() error { return e.Err }
