package auth

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountExists        = errors.New("account already exists")
	ErrIdPInteractionFailed = errors.New("identity provider interaction failed")
	ErrUnauthenticated      = errors.New("unauthenticated")
)

// Messages shown to people.
const (
	MsgCheckFields        = "Verifica los campos marcados en rojo"
	MsgInvalidEmail       = "Correo inválido"
	MsgEmailTaken         = "Correo ya registrado"
	MsgSignUpFailed       = "Error al registrarse"
	MsgInvalidCredentials = "Correo o contraseña inválidos"
	MsgSignInFailed       = "Error al iniciar sesión"
	MsgNameRequired       = "El nombre es obligatorio"
	MsgPasswordTooShort   = "La contraseña debe tener al menos 6 caracteres"
	MsgPasswordsDiffer    = "Las contraseñas no coinciden"
	MsgUnauthenticated    = "Sesión inválida o expirada"
)

// ValidationError reports invalid sign-up fields, keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return MsgCheckFields
}

// Describe returns the field names in a stable order, for logs.
func (e *ValidationError) Describe() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range []string{"name", "email", "password", "confirm_password"} {
		if _, ok := e.Fields[f]; ok {
			names = append(names, f)
		}
	}
	return strings.Join(names, ",")
}

// SignUpMessage returns the message shown for a failed sign up.
func SignUpMessage(err error) string {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return MsgCheckFields
	case errors.Is(err, ErrInvalidCredentials):
		return MsgInvalidEmail
	case errors.Is(err, ErrAccountExists):
		return MsgEmailTaken
	default:
		return MsgSignUpFailed
	}
}

// SignInMessage returns the message shown for a failed sign in.
func SignInMessage(err error) string {
	if errors.Is(err, ErrInvalidCredentials) {
		return MsgInvalidCredentials
	}
	return MsgSignInFailed
}
