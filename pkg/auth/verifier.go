// Package auth verifies access tokens issued by the identity provider.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/unabstore/shop/pkg/config"
)

type Verifier interface {
	Verify(ctx context.Context, tokenString string) (jwt.Token, error)
}

// JWTVerifier checks tokens against the realm's JWKS. The key set is fetched at
// most once per MinInterval; a failed refresh keeps serving the previous set.
type JWTVerifier struct {
	mu        sync.RWMutex
	keys      jwk.Set
	fetchedAt time.Time

	jwksURL     string
	issuer      string
	clientID    string
	minInterval time.Duration
}

// NewJWTVerifier fetches the key set once so a misconfigured IdP fails start-up.
func NewJWTVerifier(ctx context.Context, cfg config.IdP) (*JWTVerifier, error) {
	v := &JWTVerifier{
		jwksURL:     cfg.JwksURL,
		issuer:      cfg.Issuer,
		clientID:    cfg.ClientID,
		minInterval: cfg.MinInterval,
	}
	if _, err := v.keySet(ctx); err != nil {
		return nil, fmt.Errorf("initial JWKS fetch failed: %w", err)
	}
	return v, nil
}

func (v *JWTVerifier) fresh() (jwk.Set, bool) {
	if v.keys == nil || time.Since(v.fetchedAt) >= v.minInterval {
		return nil, false
	}
	return v.keys, true
}

func (v *JWTVerifier) keySet(ctx context.Context) (jwk.Set, error) {
	v.mu.RLock()
	set, ok := v.fresh()
	v.mu.RUnlock()
	if ok {
		return set, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	// another caller may have refreshed while we waited
	if set, ok := v.fresh(); ok {
		return set, nil
	}
	set, err := jwk.Fetch(ctx, v.jwksURL)
	if err != nil {
		if v.keys != nil {
			return v.keys, nil
		}
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", v.jwksURL, err)
	}
	v.keys = set
	v.fetchedAt = time.Now()
	return set, nil
}

// Verify checks signature, expiry, issuer and authorized party.
func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (jwt.Token, error) {
	set, err := v.keySet(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get keyset for verification: %w", err)
	}

	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithClaimValue("azp", v.clientID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	return token, nil
}
