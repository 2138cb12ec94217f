package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
)

func newTestIssuer(t *testing.T, accessTTL time.Duration) *TokenIssuer {
	t.Helper()

	cfg := &config.Config{}
	cfg.Security.JWTSecret = "test-secret"
	cfg.Security.AccessTokenTTL = accessTTL
	cfg.Security.RefreshTokenTTL = time.Hour

	return NewTokenIssuer(cfg)
}

func TestIssueAndParseAccessToken(t *testing.T) {
	issuer := newTestIssuer(t, time.Minute)

	raw, err := issuer.IssueAccess(42)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	claims, err := issuer.Parse(raw, TokenTypeAccess)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}

	if claims.ID == "" {
		t.Error("token should carry a jti")
	}
}

func TestParseRejectsWrongTokenType(t *testing.T) {
	issuer := newTestIssuer(t, time.Minute)

	refresh, err := issuer.IssueRefresh(42)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	if _, err := issuer.Parse(refresh, TokenTypeAccess); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("expected ErrWrongTokenType, got %v", err)
	}

	access, err := issuer.IssueAccess(42)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	if _, err := issuer.Parse(access, TokenTypeRefresh); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("expected ErrWrongTokenType, got %v", err)
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	issuer := newTestIssuer(t, time.Minute)

	other := &config.Config{}
	other.Security.JWTSecret = "another-secret"
	other.Security.AccessTokenTTL = time.Minute
	other.Security.RefreshTokenTTL = time.Hour

	foreign, err := NewTokenIssuer(other).IssueAccess(42)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	if _, err := issuer.Parse(foreign, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer := newTestIssuer(t, -time.Minute)

	raw, err := issuer.IssueAccess(42)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	if _, err := issuer.Parse(raw, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	issuer := newTestIssuer(t, time.Minute)

	if _, err := issuer.Parse("not-a-token", TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
