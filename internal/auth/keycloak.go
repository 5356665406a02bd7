package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/go-playground/validator/v10"
	"github.com/unabstore/shop/pkg/auth"
)

// keycloakClient is the part of *gocloak.GoCloak the gateway uses.
type keycloakClient interface {
	LoginClient(ctx context.Context, clientID, clientSecret, realm string, scopes ...string) (*gocloak.JWT, error)
	CreateUser(ctx context.Context, token, realm string, user gocloak.User) (string, error)
	SetPassword(ctx context.Context, token, userID, realm, password string, temporary bool) error
	DeleteUser(ctx context.Context, accessToken, realm, userID string) error
	Login(ctx context.Context, clientID, clientSecret, realm, username, password string) (*gocloak.JWT, error)
	Logout(ctx context.Context, clientID, clientSecret, realm, refreshToken string) error
}

// KeycloakGateway manages accounts in a Keycloak realm and verifies its tokens.
type KeycloakGateway struct {
	client   keycloakClient
	verifier auth.Verifier
	realm    string
	clientID string
	secret   string
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

func NewKeycloakGateway(client keycloakClient, verifier auth.Verifier, realm, clientID, secret string, logger *slog.Logger) *KeycloakGateway {
	return &KeycloakGateway{
		client:   client,
		verifier: verifier,
		realm:    realm,
		clientID: clientID,
		secret:   secret,
		validate: newValidator(),
		logger:   logger,
		now:      time.Now,
	}
}

func (k *KeycloakGateway) SignUp(ctx context.Context, dto SignUpDto) (*Session, error) {
	if err := validateSignUp(k.validate, dto); err != nil {
		return nil, err
	}
	email := normalizeEmail(dto.Email)
	user := gocloak.User{
		Username:  gocloak.StringP(email),
		Email:     gocloak.StringP(email),
		Enabled:   gocloak.BoolP(true),
		FirstName: gocloak.StringP(dto.Name),
	}

	token, err := k.client.LoginClient(ctx, k.clientID, k.secret, k.realm)
	if err != nil {
		k.logger.ErrorContext(ctx, "Failed to login", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to login to Keycloak: %v", ErrIdPInteractionFailed, err)
	}

	userID, err := k.client.CreateUser(ctx, token.AccessToken, k.realm, user)
	if err != nil {
		k.logger.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		var apiErr *gocloak.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Code {
			case http.StatusConflict:
				return nil, ErrAccountExists
			case http.StatusBadRequest:
				return nil, ErrInvalidCredentials
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrIdPInteractionFailed, err)
	}

	err = k.client.SetPassword(ctx, token.AccessToken, userID, k.realm, dto.Password, false)
	if err != nil {
		k.logger.ErrorContext(ctx, "Failed to set password", slog.Any("error", err))
		errSetPassword := fmt.Errorf("%w: failed to set password: %v", ErrIdPInteractionFailed, err)
		_ = k.client.DeleteUser(ctx, token.AccessToken, k.realm, userID)
		return nil, errSetPassword
	}

	return k.SignIn(ctx, email, dto.Password)
}

func (k *KeycloakGateway) SignIn(ctx context.Context, email, password string) (*Session, error) {
	jwt, err := k.client.Login(ctx, k.clientID, k.secret, k.realm, normalizeEmail(email), password)
	if err != nil {
		var apiErr *gocloak.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusBadRequest) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrIdPInteractionFailed, err)
	}
	id, err := k.Identify(ctx, jwt.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: issued token rejected: %v", ErrIdPInteractionFailed, err)
	}
	return &Session{
		Identity:     *id,
		AccessToken:  jwt.AccessToken,
		RefreshToken: jwt.RefreshToken,
		ExpiresAt:    k.now().Add(time.Duration(jwt.ExpiresIn) * time.Second),
	}, nil
}

func (k *KeycloakGateway) SignOut(ctx context.Context, session Session) error {
	if session.RefreshToken == "" {
		return fmt.Errorf("%w: refresh token required", ErrUnauthenticated)
	}
	if err := k.client.Logout(ctx, k.clientID, k.secret, k.realm, session.RefreshToken); err != nil {
		return fmt.Errorf("%w: %v", ErrIdPInteractionFailed, err)
	}
	return nil
}

func (k *KeycloakGateway) Identify(ctx context.Context, accessToken string) (*Identity, error) {
	token, err := k.verifier.Verify(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return identityFromToken(token)
}
