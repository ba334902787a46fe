package app

import (
	"testing"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

func TestSessionServiceRoundTrip(t *testing.T) {
	svc := NewSessionService("test-secret", "remi", time.Hour)

	tokenString, err := svc.GenerateToken("user123", "match-456")
	if err != nil {
		t.Fatalf("generate token error: %v", err)
	}

	claims := parseSessionClaims(t, tokenString, "test-secret")
	if got := stringSessionClaim(t, claims, "iss"); got != "remi" {
		t.Fatalf("iss = %s, want remi", got)
	}
	if got := stringSessionClaim(t, claims, "sub"); got != "user123" {
		t.Fatalf("sub = %s, want user123", got)
	}
	if got := stringSessionClaim(t, claims, "mid"); got != "match-456" {
		t.Fatalf("mid = %s, want match-456", got)
	}

	userID, matchID, err := svc.VerifyToken(tokenString)
	if err != nil {
		t.Fatalf("verify token error: %v", err)
	}
	if userID != "user123" || matchID != "match-456" {
		t.Fatalf("verified bindings = %s/%s, want user123/match-456", userID, matchID)
	}
}

func TestSessionServiceRejectsWrongSecret(t *testing.T) {
	minter := NewSessionService("secret-a", "remi", time.Hour)
	verifier := NewSessionService("secret-b", "remi", time.Hour)

	tokenString, err := minter.GenerateToken("user123", "match-456")
	if err != nil {
		t.Fatalf("generate token error: %v", err)
	}
	if _, _, err := verifier.VerifyToken(tokenString); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}

func TestSessionServiceRejectsWrongIssuer(t *testing.T) {
	minter := NewSessionService("secret", "other", time.Hour)
	verifier := NewSessionService("secret", "remi", time.Hour)

	tokenString, err := minter.GenerateToken("user123", "match-456")
	if err != nil {
		t.Fatalf("generate token error: %v", err)
	}
	if _, _, err := verifier.VerifyToken(tokenString); err == nil {
		t.Fatal("expected error for token from another issuer")
	}
}

func TestSessionServiceRejectsExpiredToken(t *testing.T) {
	svc := NewSessionService("secret", "remi", -time.Minute)
	// ttl <= 0 falls back to an hour, so expire the claims by hand instead.
	claims := jwt.MapClaims{
		"iss": "remi",
		"sub": "user123",
		"mid": "match-456",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token error: %v", err)
	}
	if _, _, err := svc.VerifyToken(tokenString); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestSessionServiceGenerateTokenRequiresBindings(t *testing.T) {
	svc := NewSessionService("secret", "remi", time.Hour)
	if _, err := svc.GenerateToken("", "match-456"); err == nil {
		t.Fatal("expected error for empty user")
	}
	if _, err := svc.GenerateToken("user123", ""); err == nil {
		t.Fatal("expected error for empty match")
	}
}

func TestSessionServiceRequiresSecret(t *testing.T) {
	svc := NewSessionService("", "remi", time.Hour)
	if _, err := svc.GenerateToken("user123", "match-456"); err == nil {
		t.Fatal("expected error when no secret is configured")
	}
	if _, _, err := svc.VerifyToken("anything"); err == nil {
		t.Fatal("expected error when no secret is configured")
	}
}

func parseSessionClaims(t *testing.T, tokenString, secret string) jwt.MapClaims {
	t.Helper()
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("parse token error: %v", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("token claims are not map claims")
	}
	return claims
}

func stringSessionClaim(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	value, ok := claims[key].(string)
	if !ok {
		t.Fatalf("claim %s is missing or not a string", key)
	}
	return value
}
