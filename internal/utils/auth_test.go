package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTerminalToken(t *testing.T) {
	secret := "test-secret-key-12345"

	token, err := GenerateTerminalToken("T1", secret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if token == "" {
		t.Fatal("Token should not be empty")
	}

	// Test Validation (Success)
	claims, err := ValidateToken(token, secret)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if TerminalID(claims) != "T1" {
		t.Errorf("Expected terminal T1, got %v", claims["terminal"])
	}

	// Test Validation (Failure - Wrong Key)
	if _, err := ValidateToken(token, "wrong-key"); err == nil {
		t.Error("Validation should fail with wrong key")
	}
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateTerminalToken("T1", "k", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken(token, "k"); err == nil {
		t.Error("Expired token should be rejected")
	}
}

func TestRejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"terminal": "T1"})
	s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken(s, "k"); err == nil {
		t.Error("Unsigned token should be rejected")
	}
}
