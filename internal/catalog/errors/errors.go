// Package errors provides error types for catalog operations.
package errors

import (
	"errors"
	"strings"
)

var (
	ErrCreateProduct  = errors.New("failed to create product")
	ErrListProducts   = errors.New("failed to list products")
	ErrDeleteProduct  = errors.New("failed to delete product")
	ErrServiceClosed  = errors.New("catalog service closed")
	ErrInvalidProduct = errors.New("invalid product")
)

// unknownErrorMessage is shown when a remote failure carries no message.
const unknownErrorMessage = "Error desconocido"

// FieldError is a validation failure of a single field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError reports local validation failures. No remote call is made when it is returned.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidProduct
}

// Map returns the field messages keyed by field name.
func (e *ValidationError) Map() map[string]string {
	m := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		m[f.Field] = f.Message
	}
	return m
}

// RemoteError is a failure of the remote collection during an operation.
// It matches both the operation sentinel and the cause with errors.Is.
type RemoteError struct {
	Op    error
	Cause error
}

func (e *RemoteError) Error() string {
	if e.Cause == nil {
		return e.Op.Error()
	}
	return e.Op.Error() + ": " + e.Cause.Error()
}

func (e *RemoteError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Op}
	}
	return []error{e.Op, e.Cause}
}

// UserMessage returns the message to show to a person for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	var rerr *RemoteError
	if errors.As(err, &rerr) {
		if rerr.Cause == nil || rerr.Cause.Error() == "" {
			return unknownErrorMessage
		}
		return rerr.Cause.Error()
	}
	if err.Error() == "" {
		return unknownErrorMessage
	}
	return err.Error()
}
