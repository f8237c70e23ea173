// Package apperr holds the error taxonomy shared by the API and its client.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrAuthorizationDenied = errors.New("authorization denied")
	ErrTransient           = errors.New("temporary failure, try again")
	ErrConflict            = errors.New("conflict")
)

// ValidationError is returned before any query runs when input fails a
// required-field or length check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field string, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

