// Package auth implements the Identity Gate (C2): it validates an opaque
// bearer token, extracts the immutable userId claim, and surfaces
// {userId, email, displayName} to callers. It never trusts a userId
// supplied in a request body.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind classifies why verification failed, so REST and WebSocket callers can
// map it onto the error taxonomy in spec §7.
type Kind int

const (
	KindInvalidSignature Kind = iota
	KindExpired
	KindWrongAudience
	KindMissingToken
)

// AuthError is returned by Verify on any failure to authenticate a token.
type AuthError struct {
	Kind    Kind
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// Identity is the verified claim set extracted from a token. UserID is the
// single immutable identifier used everywhere a userId is required
// (player1Id/player2Id, chat author, presence) — callers must never accept a
// userId from a request body in its place.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
	expiresAt   time.Time
}

// Verifier verifies bearer tokens against a known identity provider and
// caches successful verifications for the remainder of the token's
// lifetime (spec §4.2).
type Verifier struct {
	issuer   string
	audience string
	keyFunc  jwt.Keyfunc

	mu    sync.Mutex
	cache map[string]Identity
}

// NewVerifier builds a Verifier. keyFunc resolves the signing key for a
// token (e.g. fetched from the identity provider's JWKS endpoint); it is
// injected so tests can supply a fixed HMAC or RSA key without reaching the
// network.
func NewVerifier(issuer, audience string, keyFunc jwt.Keyfunc) *Verifier {
	return &Verifier{
		issuer:   issuer,
		audience: audience,
		keyFunc:  keyFunc,
		cache:    make(map[string]Identity),
	}
}

// Verify checks a bearer token's signature, issuer, audience and expiry and
// returns the identity it carries. A result previously returned for the same
// raw token string is served from cache until that token's own expiry, or
// for five minutes when the token carries no exp claim.
func (v *Verifier) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, &AuthError{Kind: KindMissingToken, Message: "missing bearer token"}
	}

	v.mu.Lock()
	if cached, ok := v.cache[token]; ok {
		if time.Now().Before(cached.expiresAt) {
			v.mu.Unlock()
			return cached, nil
		}
		delete(v.cache, token)
	}
	v.mu.Unlock()

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.keyFunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
	)
	if err != nil {
		return Identity{}, classifyParseError(err)
	}
	if !parsed.Valid {
		return Identity{}, &AuthError{Kind: KindInvalidSignature, Message: "token failed validation"}
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return Identity{}, &AuthError{Kind: KindInvalidSignature, Message: "token missing subject claim"}
	}

	identity := Identity{
		UserID:      sub,
		Email:       stringClaim(claims, "email"),
		DisplayName: stringClaim(claims, "name"),
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		identity.expiresAt = exp.Time
	} else {
		identity.expiresAt = time.Now().Add(5 * time.Minute)
	}

	v.mu.Lock()
	v.cache[token] = identity
	v.mu.Unlock()

	return identity, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &AuthError{Kind: KindExpired, Message: "token expired"}
	case errors.Is(err, jwt.ErrTokenInvalidAudience), errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return &AuthError{Kind: KindWrongAudience, Message: "token issued for a different audience or issuer"}
	default:
		return &AuthError{Kind: KindInvalidSignature, Message: fmt.Sprintf("invalid token: %v", err)}
	}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// contextKey is the request-context key under which a verified Identity is
// stored by REST middleware.
type contextKey string

const identityContextKey = contextKey("identity")

// WithIdentity returns a context carrying the verified identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// FromContext extracts the verified identity set by REST middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}
