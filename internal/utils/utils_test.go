package utils

import (
	"testing"

	"github.com/borjaoskins/raffle-backend/internal/config"
)

func testJWTConfig(secret string) *config.Config {
	return &config.Config{JWT: config.JWTConfig{Secret: secret, ExpiresIn: 1800}}
}

func TestAdminJWTRoundTrip(t *testing.T) {
	cfg := testJWTConfig("unit-test-secret")

	token, expiresAt, err := GenerateAdminJWT(cfg)
	if err != nil {
		t.Fatalf("GenerateAdminJWT: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if expiresAt.IsZero() {
		t.Fatal("zero expiry")
	}

	claims, err := ValidateJWT(token, cfg)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if claims["role"] != "admin" {
		t.Errorf("role claim = %v, want admin", claims["role"])
	}
}

func TestValidateJWTWrongSecret(t *testing.T) {
	token, _, err := GenerateAdminJWT(testJWTConfig("secret-a"))
	if err != nil {
		t.Fatalf("GenerateAdminJWT: %v", err)
	}

	if _, err := ValidateJWT(token, testJWTConfig("secret-b")); err == nil {
		t.Error("token signed with another secret accepted")
	}
}

func TestValidateJWTGarbage(t *testing.T) {
	cfg := testJWTConfig("unit-test-secret")
	for _, token := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, err := ValidateJWT(token, cfg); err == nil {
			t.Errorf("token %q accepted", token)
		}
	}
}
