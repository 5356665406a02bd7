package auth

import (
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwt"
)

// identityFromToken reads the identity claims of a verified token.
func identityFromToken(token jwt.Token) (*Identity, error) {
	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf("%w: no claim `sub`", ErrUnauthenticated)
	}
	id := &Identity{ID: subject}
	// email and name are optional claims
	_ = token.Get("email", &id.Email)
	if err := token.Get("name", &id.Name); err != nil {
		_ = token.Get("preferred_username", &id.Name)
	}
	return id, nil
}
