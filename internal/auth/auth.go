// Package auth provides the authentication gateway: sign up, sign in, sign out
// and resolution of the current identity from an access token.
package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/unabstore/shop/pkg/logger"
)

// Identity is an authenticated person.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Session is the result of a successful sign up or sign in.
type Session struct {
	Identity     Identity  `json:"identity"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SignUpDto is the registration form.
type SignUpDto struct {
	Name            string `json:"name"             validate:"notblank"`
	Email           string `json:"email"            validate:"required,email"`
	Password        string `json:"password"         validate:"min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

// SignInDto is the sign-in form.
type SignInDto struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Gateway talks to the identity provider.
type Gateway interface {
	// SignUp validates the form, creates the account and opens a session.
	SignUp(ctx context.Context, dto SignUpDto) (*Session, error)

	// SignIn opens a session for an existing account.
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// SignOut ends the session.
	SignOut(ctx context.Context, session Session) error

	// Identify resolves the identity behind an access token.
	Identify(ctx context.Context, accessToken string) (*Identity, error)
}

// Driver names accepted by the configuration.
const (
	DriverKeycloak = "keycloak"
	DriverLocal    = "local"
)

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id. Records logged with the
// returned context name the user.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = logger.AppendAttrs(ctx, slog.String("user_id", id.ID))
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext returns the current identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
