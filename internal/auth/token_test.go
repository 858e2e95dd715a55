package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	userID, issuedAt, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if userID != 42 {
		t.Errorf("userID = %d, want 42", userID)
	}
	if time.Since(issuedAt) > time.Minute || issuedAt.IsZero() {
		t.Errorf("issuedAt = %v, want roughly now", issuedAt)
	}
}

func TestTokenUsesConfiguredSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "configured-signing-key")

	token, err := GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	// The configured key must round-trip.
	userID, _, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if userID != 42 {
		t.Errorf("userID = %d, want 42", userID)
	}

	// The development fallback key must no longer validate the token.
	_, err = jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte("quiz-api-dev-signing-key"), nil
	})
	if err == nil {
		t.Error("token validated against the fallback key despite JWT_SECRET being set")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	if _, _, err := ParseToken("not-a-token"); err == nil {
		t.Error("ParseToken accepted garbage")
	}
}

func TestParseTokenRejectsTampered(t *testing.T) {
	token, err := GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	// Flip a character in the signature segment.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d segments, want 3", len(parts))
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, _, err := ParseToken(tampered); err == nil {
		t.Error("ParseToken accepted a tampered signature")
	}
}
