// Package jwks resolves a golang-jwt Keyfunc against a remote JSON Web Key
// Set, so the Identity Gate (internal/auth) can verify tokens signed by a
// real identity provider without this service holding a copy of its keys.
package jwks

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// Resolver fetches and caches a provider's signing keyset.
type Resolver struct {
	url string
	set jwk.Set
}

// NewResolver fetches the keyset at url once at startup. A provider that
// rotates keys without changing this URL is expected to keep old key IDs
// resolvable for the overlap window described in its own JWKS contract.
func NewResolver(ctx context.Context, url string) (*Resolver, error) {
	set, err := jwk.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", url, err)
	}
	return &Resolver{url: url, set: set}, nil
}

// Keyfunc adapts the resolved keyset into a golang-jwt Keyfunc: it looks up
// the signing key named by the token's "kid" header and returns its raw
// public key for signature verification.
func (r *Resolver) Keyfunc(token *jwt.Token) (interface{}, error) {
	kid, ok := token.Header["kid"].(string)
	if !ok || kid == "" {
		return nil, fmt.Errorf("token has no kid header")
	}

	key, ok := r.set.LookupKeyID(kid)
	if !ok {
		return nil, fmt.Errorf("no key found for kid=%s in %s", kid, r.url)
	}

	var raw interface{}
	if err := jwk.Export(key, &raw); err != nil {
		return nil, fmt.Errorf("failed to export key kid=%s: %w", kid, err)
	}
	return raw, nil
}
