package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = time.Hour

type account struct {
	identity Identity
	hash     []byte
}

// LocalGateway keeps accounts in memory and issues HS256 access tokens.
// It is meant for development and tests.
type LocalGateway struct {
	mu       sync.RWMutex
	accounts map[string]*account
	revoked  map[string]time.Time

	secret   []byte
	issuer   string
	ttl      time.Duration
	now      func() time.Time
	validate *validator.Validate
	logger   *slog.Logger
}

// LocalOption configures a LocalGateway.
type LocalOption func(*LocalGateway)

// WithTokenTTL sets the access token lifetime.
func WithTokenTTL(ttl time.Duration) LocalOption {
	return func(g *LocalGateway) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) LocalOption {
	return func(g *LocalGateway) { g.now = now }
}

// WithLocalLogger sets the logger.
func WithLocalLogger(logger *slog.Logger) LocalOption {
	return func(g *LocalGateway) { g.logger = logger }
}

// NewLocalGateway creates a gateway signing tokens with secret.
func NewLocalGateway(secret []byte, issuer string, opts ...LocalOption) (*LocalGateway, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("local auth secret must be at least 32 bytes, got %d", len(secret))
	}
	g := &LocalGateway{
		accounts: make(map[string]*account),
		revoked:  make(map[string]time.Time),
		secret:   secret,
		issuer:   issuer,
		ttl:      defaultTokenTTL,
		now:      time.Now,
		validate: newValidator(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *LocalGateway) SignUp(ctx context.Context, dto SignUpDto) (*Session, error) {
	if err := validateSignUp(g.validate, dto); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", ErrIdPInteractionFailed, err)
	}

	email := normalizeEmail(dto.Email)
	g.mu.Lock()
	if _, exists := g.accounts[email]; exists {
		g.mu.Unlock()
		return nil, ErrAccountExists
	}
	acc := &account{
		identity: Identity{ID: uuid.NewString(), Email: email, Name: dto.Name},
		hash:     hash,
	}
	g.accounts[email] = acc
	g.mu.Unlock()

	g.logger.InfoContext(ctx, "account created", slog.String("user_id", acc.identity.ID))
	return g.issue(acc.identity)
}

func (g *LocalGateway) SignIn(_ context.Context, email, password string) (*Session, error) {
	g.mu.RLock()
	acc, ok := g.accounts[normalizeEmail(email)]
	g.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return g.issue(acc.identity)
}

// SignOut revokes the access token of session. Revoking twice is not an error.
func (g *LocalGateway) SignOut(_ context.Context, session Session) error {
	token, err := g.parse(session.AccessToken)
	if err != nil {
		return err
	}
	jti, ok := token.JwtID()
	if !ok {
		return fmt.Errorf("%w: no claim `jti`", ErrUnauthenticated)
	}
	exp, _ := token.Expiration()

	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, until := range g.revoked {
		if until.Before(now) {
			delete(g.revoked, id)
		}
	}
	g.revoked[jti] = exp
	return nil
}

func (g *LocalGateway) Identify(_ context.Context, accessToken string) (*Identity, error) {
	token, err := g.parse(accessToken)
	if err != nil {
		return nil, err
	}
	jti, _ := token.JwtID()
	g.mu.RLock()
	_, revoked := g.revoked[jti]
	g.mu.RUnlock()
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", ErrUnauthenticated)
	}
	return identityFromToken(token)
}

func (g *LocalGateway) issue(id Identity) (*Session, error) {
	now := g.now()
	exp := now.Add(g.ttl)
	token, err := jwt.NewBuilder().
		Subject(id.ID).
		Issuer(g.issuer).
		IssuedAt(now).
		Expiration(exp).
		JwtID(uuid.NewString()).
		Claim("email", id.Email).
		Claim("name", id.Name).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: build token: %v", ErrIdPInteractionFailed, err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), g.secret))
	if err != nil {
		return nil, fmt.Errorf("%w: sign token: %v", ErrIdPInteractionFailed, err)
	}
	return &Session{Identity: id, AccessToken: string(signed), ExpiresAt: exp}, nil
}

func (g *LocalGateway) parse(accessToken string) (jwt.Token, error) {
	token, err := jwt.Parse(
		[]byte(accessToken),
		jwt.WithKey(jwa.HS256(), g.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(g.issuer),
		jwt.WithClock(jwt.ClockFunc(g.now)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return token, nil
}
