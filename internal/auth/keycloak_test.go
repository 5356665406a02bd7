package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockGoCloakClient is a mock implementation of keycloakClient
type mockGoCloakClient struct {
	loginToken *gocloak.JWT
	loginErr   error

	createID  string
	createErr error

	setPwdErr    error
	deleteCalled bool

	userToken *gocloak.JWT
	userErr   error

	logoutErr   error
	logoutToken string
}

func (m *mockGoCloakClient) LoginClient(context.Context, string, string, string, ...string) (*gocloak.JWT, error) {
	return m.loginToken, m.loginErr
}

func (m *mockGoCloakClient) CreateUser(context.Context, string, string, gocloak.User) (string, error) {
	return m.createID, m.createErr
}

func (m *mockGoCloakClient) SetPassword(context.Context, string, string, string, string, bool) error {
	return m.setPwdErr
}

func (m *mockGoCloakClient) DeleteUser(context.Context, string, string, string) error {
	m.deleteCalled = true
	return nil
}

func (m *mockGoCloakClient) Login(context.Context, string, string, string, string, string) (*gocloak.JWT, error) {
	return m.userToken, m.userErr
}

func (m *mockGoCloakClient) Logout(_ context.Context, _, _, _, refreshToken string) error {
	m.logoutToken = refreshToken
	return m.logoutErr
}

// stubVerifier accepts "user-token" only.
type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, tokenString string) (jwt.Token, error) {
	if tokenString != "user-token" {
		return nil, errors.New("signature is invalid")
	}
	return jwt.NewBuilder().
		Subject("kc-1").
		Claim("email", "ana@unab.edu.co").
		Claim("preferred_username", "ana").
		Expiration(time.Now().Add(time.Hour)).
		Build()
}

func TestKeycloakGateway_SignUp(t *testing.T) {
	ctx := context.Background()
	valid := SignUpDto{Name: "Ana", Email: "Ana@unab.edu.co", Password: "secreto", ConfirmPassword: "secreto"}
	clientToken := &gocloak.JWT{AccessToken: "client-token"}
	userToken := &gocloak.JWT{AccessToken: "user-token", RefreshToken: "refresh", ExpiresIn: 300}

	// given
	tests := []struct {
		name         string
		mock         *mockGoCloakClient
		dto          SignUpDto
		expectedErr  error
		expectDelete bool
	}{
		{
			name: "success",
			mock: &mockGoCloakClient{loginToken: clientToken, createID: "kc-1", userToken: userToken},
			dto:  valid,
		},
		{
			name: "login error",
			mock: &mockGoCloakClient{loginErr: errors.New("unreachable")},
			dto:  valid,

			expectedErr: ErrIdPInteractionFailed,
		},
		{
			name:        "conflict",
			mock:        &mockGoCloakClient{loginToken: clientToken, createErr: &gocloak.APIError{Code: http.StatusConflict}},
			dto:         valid,
			expectedErr: ErrAccountExists,
		},
		{
			name:        "bad request",
			mock:        &mockGoCloakClient{loginToken: clientToken, createErr: &gocloak.APIError{Code: http.StatusBadRequest}},
			dto:         valid,
			expectedErr: ErrInvalidCredentials,
		},
		{
			name:        "other create error",
			mock:        &mockGoCloakClient{loginToken: clientToken, createErr: &gocloak.APIError{Code: http.StatusInternalServerError}},
			dto:         valid,
			expectedErr: ErrIdPInteractionFailed,
		},
		{
			name:         "set password error removes the user",
			mock:         &mockGoCloakClient{loginToken: clientToken, createID: "kc-1", setPwdErr: errors.New("boom")},
			dto:          valid,
			expectedErr:  ErrIdPInteractionFailed,
			expectDelete: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := NewKeycloakGateway(tt.mock, stubVerifier{}, "realm", "client", "secret", slog.New(slog.DiscardHandler))

			// when
			session, err := gw.SignUp(ctx, tt.dto)

			// then
			assert.Equal(t, tt.expectDelete, tt.mock.deleteCalled)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, session)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Identity{ID: "kc-1", Email: "ana@unab.edu.co", Name: "ana"}, session.Identity)
			assert.Equal(t, "refresh", session.RefreshToken)
		})
	}
}

func TestKeycloakGateway_SignUp_validation(t *testing.T) {
	// given
	mock := &mockGoCloakClient{}
	gw := NewKeycloakGateway(mock, stubVerifier{}, "realm", "client", "secret", slog.New(slog.DiscardHandler))

	// when
	_, err := gw.SignUp(context.Background(), SignUpDto{})

	// then
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
	assert.Equal(t, MsgCheckFields, SignUpMessage(err))
}

func TestKeycloakGateway_SignIn(t *testing.T) {
	tests := []struct {
		name        string
		mock        *mockGoCloakClient
		expectedErr error
	}{
		{
			name: "success",
			mock: &mockGoCloakClient{userToken: &gocloak.JWT{AccessToken: "user-token"}},
		},
		{
			name:        "wrong password",
			mock:        &mockGoCloakClient{userErr: &gocloak.APIError{Code: http.StatusUnauthorized}},
			expectedErr: ErrInvalidCredentials,
		},
		{
			name:        "idp down",
			mock:        &mockGoCloakClient{userErr: errors.New("connection refused")},
			expectedErr: ErrIdPInteractionFailed,
		},
		{
			name:        "token rejected",
			mock:        &mockGoCloakClient{userToken: &gocloak.JWT{AccessToken: "forged"}},
			expectedErr: ErrIdPInteractionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			gw := NewKeycloakGateway(tt.mock, stubVerifier{}, "realm", "client", "secret", slog.New(slog.DiscardHandler))

			// when
			session, err := gw.SignIn(context.Background(), "ana@unab.edu.co", "secreto")

			// then
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "kc-1", session.Identity.ID)
		})
	}
}

func TestKeycloakGateway_SignOut(t *testing.T) {
	// given
	mock := &mockGoCloakClient{}
	gw := NewKeycloakGateway(mock, stubVerifier{}, "realm", "client", "secret", slog.New(slog.DiscardHandler))

	// when
	errMissing := gw.SignOut(context.Background(), Session{AccessToken: "user-token"})
	errOK := gw.SignOut(context.Background(), Session{AccessToken: "user-token", RefreshToken: "refresh"})
	mock.logoutErr = errors.New("boom")
	errIdP := gw.SignOut(context.Background(), Session{RefreshToken: "refresh"})

	// then
	require.ErrorIs(t, errMissing, ErrUnauthenticated)
	require.NoError(t, errOK)
	assert.Equal(t, "refresh", mock.logoutToken)
	require.ErrorIs(t, errIdP, ErrIdPInteractionFailed)
}
