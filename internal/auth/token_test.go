package auth

import (
	"testing"

	"github.com/spec-kit/loan-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	mgr := NewTokenManager("secret", 60)
	token, expiresAt, err := mgr.GenerateToken("user-1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if expiresAt.IsZero() {
		t.Error("missing expiry")
	}

	claims, err := mgr.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != domain.RoleAdmin {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	mgr := NewTokenManager("secret", 60)
	token, _, err := mgr.GenerateToken("user-1", domain.RoleUser)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	other := NewTokenManager("different", 60)
	if _, err := other.ParseToken(token); err == nil {
		t.Error("token accepted with wrong secret")
	}
}

func TestTokenGarbage(t *testing.T) {
	mgr := NewTokenManager("secret", 60)
	if _, err := mgr.ParseToken("not-a-jwt"); err == nil {
		t.Error("garbage token accepted")
	}
}
