package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type emptyError struct{}

func (emptyError) Error() string { return "" }

func TestUserMessage(t *testing.T) {
	cause := errors.New("connection refused")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{
			name: "validation error",
			err:  &ValidationError{Fields: []FieldError{{Field: "name", Message: "El nombre es obligatorio"}}},
			want: "El nombre es obligatorio",
		},
		{name: "remote error with cause", err: &RemoteError{Op: ErrCreateProduct, Cause: cause}, want: "connection refused"},
		{name: "remote error without cause", err: &RemoteError{Op: ErrCreateProduct}, want: "Error desconocido"},
		{name: "remote error with empty cause", err: &RemoteError{Op: ErrCreateProduct, Cause: emptyError{}}, want: "Error desconocido"},
		{name: "plain error", err: cause, want: "connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestRemoteError_Is(t *testing.T) {
	// given
	cause := errors.New("timeout")
	err := error(&RemoteError{Op: ErrListProducts, Cause: cause})

	// then
	assert.ErrorIs(t, err, ErrListProducts)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrCreateProduct)
	assert.Equal(t, "failed to list products: timeout", err.Error())
}

func TestValidationError(t *testing.T) {
	// given
	err := &ValidationError{Fields: []FieldError{
		{Field: "name", Message: "El nombre es obligatorio"},
		{Field: "price", Message: "El precio debe ser mayor que cero"},
	}}

	// then
	assert.ErrorIs(t, err, ErrInvalidProduct)
	assert.Equal(t, "El nombre es obligatorio; El precio debe ser mayor que cero", err.Error())
	assert.Equal(t, map[string]string{
		"name":  "El nombre es obligatorio",
		"price": "El precio debe ser mayor que cero",
	}, err.Map())
}
