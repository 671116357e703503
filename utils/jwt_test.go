package utils

import (
	"testing"

	"famstore/config"
)

func TestTokenRoundTrip(t *testing.T) {
	config.AppConfig = &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpireHours: 1}}

	token, err := GenerateToken("user-42")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != "user-42" {
		t.Fatalf("user id %q, want user-42", claims.UserID)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	config.AppConfig = &config.Config{JWT: config.JWTConfig{Secret: "secret-a", ExpireHours: 1}}
	token, err := GenerateToken("user-42")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	config.AppConfig.JWT.Secret = "secret-b"
	if _, err := ParseToken(token); err == nil {
		t.Fatalf("expected parse to fail with a different secret")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	config.AppConfig = &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpireHours: 1}}
	if _, err := ParseToken("not-a-token"); err == nil {
		t.Fatalf("expected parse to fail")
	}
}
