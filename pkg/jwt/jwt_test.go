package jwt

import (
	"testing"
	"time"

	"livetalk/backend/internal/config"

	gojwt "github.com/golang-jwt/jwt/v5"
)

func TestGenerateTokenRoundTrip(t *testing.T) {
	config.AppConfig = &config.Config{JWTSecret: "test-secret"}

	signed, err := GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	token, err := gojwt.Parse(signed, func(token *gojwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if !token.Valid {
		t.Fatal("token did not validate")
	}

	claims, ok := token.Claims.(gojwt.MapClaims)
	if !ok {
		t.Fatal("expected map claims")
	}
	if sub, _ := claims["sub"].(float64); uint(sub) != 42 {
		t.Errorf("sub claim = %v, want 42", claims["sub"])
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		t.Fatalf("exp claim missing: %v", err)
	}
	if remaining := time.Until(exp.Time); remaining < 6*24*time.Hour {
		t.Errorf("token expires in %v, want about a week", remaining)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	config.AppConfig = &config.Config{JWTSecret: "test-secret"}

	signed, err := GenerateToken(7)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	token, err := gojwt.Parse(signed, func(token *gojwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	if err == nil && token.Valid {
		t.Error("token validated under the wrong secret")
	}
}
