package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-signing-secret")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func newTestVerifier() *Verifier {
	keyFunc := func(token *jwt.Token) (interface{}, error) { return testSecret, nil }
	return NewVerifier("turnlink-tests", "turnlink-clients", keyFunc)
}

func TestVerifyValidToken(t *testing.T) {
	v := newTestVerifier()
	claims := jwt.MapClaims{
		"sub":   "user-1",
		"email": "user1@example.com",
		"name":  "User One",
		"iss":   "turnlink-tests",
		"aud":   "turnlink-clients",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}

	identity, err := v.Verify(signToken(t, claims))
	if err != nil {
		t.Fatalf("expected valid token to verify, got error: %v", err)
	}
	if identity.UserID != "user-1" {
		t.Errorf("expected UserID 'user-1', got %s", identity.UserID)
	}
	if identity.Email != "user1@example.com" {
		t.Errorf("expected email, got %s", identity.Email)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	v := newTestVerifier()
	claims := jwt.MapClaims{
		"sub": "user-1",
		"iss": "turnlink-tests",
		"aud": "turnlink-clients",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}

	_, err := v.Verify(signToken(t, claims))
	if err == nil {
		t.Fatal("expected expired token to fail verification")
	}
	authErr, ok := err.(*AuthError)
	if !ok || authErr.Kind != KindExpired {
		t.Errorf("expected KindExpired, got %v", err)
	}
}

func TestVerifyWrongAudience(t *testing.T) {
	v := newTestVerifier()
	claims := jwt.MapClaims{
		"sub": "user-1",
		"iss": "turnlink-tests",
		"aud": "someone-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	}

	_, err := v.Verify(signToken(t, claims))
	if err == nil {
		t.Fatal("expected wrong-audience token to fail verification")
	}
	authErr, ok := err.(*AuthError)
	if !ok || authErr.Kind != KindWrongAudience {
		t.Errorf("expected KindWrongAudience, got %v", err)
	}
}

func TestVerifyMissingToken(t *testing.T) {
	v := newTestVerifier()
	_, err := v.Verify("")
	authErr, ok := err.(*AuthError)
	if !ok || authErr.Kind != KindMissingToken {
		t.Errorf("expected KindMissingToken, got %v", err)
	}
}

func TestVerifyCachesResult(t *testing.T) {
	v := newTestVerifier()
	claims := jwt.MapClaims{
		"sub": "user-2",
		"iss": "turnlink-tests",
		"aud": "turnlink-clients",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token := signToken(t, claims)

	first, err := v.Verify(token)
	if err != nil {
		t.Fatalf("unexpected error on first verify: %v", err)
	}

	if _, ok := v.cache[token]; !ok {
		t.Fatal("expected successful verification to populate the cache")
	}

	second, err := v.Verify(token)
	if err != nil {
		t.Fatalf("unexpected error on cached verify: %v", err)
	}
	if second.UserID != first.UserID {
		t.Errorf("expected cached identity to match, got %s vs %s", second.UserID, first.UserID)
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{UserID: "u1"})
	identity, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected identity to be present in context")
	}
	if identity.UserID != "u1" {
		t.Errorf("expected UserID 'u1', got %s", identity.UserID)
	}

	_, ok = FromContext(context.Background())
	if ok {
		t.Error("expected no identity in an empty context")
	}
}
