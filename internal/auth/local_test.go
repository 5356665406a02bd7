package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte(strings.Repeat("k", 32))

func newTestGateway(t *testing.T, opts ...LocalOption) *LocalGateway {
	t.Helper()
	gw, err := NewLocalGateway(testSecret, "unab-shop-test", opts...)
	require.NoError(t, err)
	return gw
}

func TestNewLocalGateway_shortSecret(t *testing.T) {
	_, err := NewLocalGateway([]byte("short"), "issuer")
	require.Error(t, err)
}

func TestLocalGateway_SignUpValidation(t *testing.T) {
	tests := []struct {
		name   string
		dto    SignUpDto
		fields map[string]string
	}{
		{
			name: "everything wrong",
			dto:  SignUpDto{Name: "  ", Email: "no-es-correo", Password: "123", ConfirmPassword: "1234"},
			fields: map[string]string{
				"name":             MsgNameRequired,
				"email":            MsgInvalidEmail,
				"password":         MsgPasswordTooShort,
				"confirm_password": MsgPasswordsDiffer,
			},
		},
		{
			name:   "confirmation differs",
			dto:    SignUpDto{Name: "Ana", Email: "ana@unab.edu.co", Password: "secreto", ConfirmPassword: "secreta"},
			fields: map[string]string{"confirm_password": MsgPasswordsDiffer},
		},
		{
			name:   "empty email",
			dto:    SignUpDto{Name: "Ana", Password: "secreto", ConfirmPassword: "secreto"},
			fields: map[string]string{"email": MsgInvalidEmail},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			gw := newTestGateway(t)

			// when
			session, err := gw.SignUp(context.Background(), tt.dto)

			// then
			assert.Nil(t, session)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.fields, verr.Fields)
			assert.Equal(t, MsgCheckFields, verr.Error())
		})
	}
}

func TestLocalGateway_Lifecycle(t *testing.T) {
	// given
	ctx := context.Background()
	gw := newTestGateway(t)
	dto := SignUpDto{Name: "Ana", Email: "Ana@Unab.edu.co", Password: "secreto", ConfirmPassword: "secreto"}

	// when
	created, err := gw.SignUp(ctx, dto)

	// then
	require.NoError(t, err)
	assert.Equal(t, "ana@unab.edu.co", created.Identity.Email)
	assert.NotEmpty(t, created.Identity.ID)

	_, err = gw.SignUp(ctx, dto)
	require.ErrorIs(t, err, ErrAccountExists)
	assert.Equal(t, MsgEmailTaken, SignUpMessage(err))

	_, err = gw.SignIn(ctx, "ana@unab.edu.co", "incorrecta")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, MsgInvalidCredentials, SignInMessage(err))

	_, err = gw.SignIn(ctx, "nadie@unab.edu.co", "secreto")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := gw.SignIn(ctx, "ANA@unab.edu.co", "secreto")
	require.NoError(t, err)

	id, err := gw.Identify(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.Identity, *id)

	require.NoError(t, gw.SignOut(ctx, *session))
	require.NoError(t, gw.SignOut(ctx, *session))
	_, err = gw.Identify(ctx, session.AccessToken)
	require.ErrorIs(t, err, ErrUnauthenticated)

	// the sign-up session is still valid
	_, err = gw.Identify(ctx, created.AccessToken)
	require.NoError(t, err)
}

func TestLocalGateway_Identify(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	gw := newTestGateway(t, WithClock(clock), WithTokenTTL(time.Minute))
	session, err := gw.SignUp(ctx, SignUpDto{Name: "Ana", Email: "ana@unab.edu.co", Password: "secreto", ConfirmPassword: "secreto"})
	require.NoError(t, err)

	other, err := NewLocalGateway([]byte(strings.Repeat("x", 32)), "unab-shop-test", WithClock(clock))
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := gw.Identify(ctx, "not-a-token")
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("foreign signature", func(t *testing.T) {
		_, err := other.Identify(ctx, session.AccessToken)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("expired", func(t *testing.T) {
		mu.Lock()
		now = now.Add(2 * time.Minute)
		mu.Unlock()

		_, err := gw.Identify(ctx, session.AccessToken)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})
}
