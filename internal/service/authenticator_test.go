package service

import (
	"errors"
	"testing"
	"time"

	"hemoscan/internal/domain"
)

func TestAuthenticatorAuthenticate(t *testing.T) {
	codec := NewTokenCodec(testSecret)
	authn := NewAuthenticator(codec)

	access, _, err := codec.Sign("a@x.io", domain.TokenKindAccess, time.Hour)
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}
	refresh, _, err := codec.Sign("a@x.io", domain.TokenKindRefresh, time.Hour)
	if err != nil {
		t.Fatalf("sign refresh: %v", err)
	}

	for _, header := range []string{"Bearer " + access, "bearer " + access, "  BEARER " + access + "  "} {
		email, err := authn.Authenticate(header)
		if err != nil {
			t.Fatalf("expected %q to authenticate, got %v", header, err)
		}
		if email != "a@x.io" {
			t.Fatalf("expected subject email, got %q", email)
		}
	}

	rejected := map[string]string{
		"missing header": "",
		"no scheme":      access,
		"basic scheme":   "Basic " + access,
		"bearer only":    "Bearer ",
		"refresh token":  "Bearer " + refresh,
		"garbage":        "Bearer not-a-jwt",
		"two tokens":     "Bearer " + access + " " + access,
		"foreign secret": "Bearer " + mustSign(t, NewTokenCodec("other"), domain.TokenKindAccess),
	}
	for name, header := range rejected {
		t.Run(name, func(t *testing.T) {
			if _, err := authn.Authenticate(header); !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestAuthenticator_ExpiredAccessToken(t *testing.T) {
	codec := NewTokenCodec(testSecret)
	codec.now = func() time.Time { return time.Now().UTC().Add(-48 * time.Hour) }
	token := mustSign(t, codec, domain.TokenKindAccess)
	codec.now = func() time.Time { return time.Now().UTC() }

	if _, err := NewAuthenticator(codec).Authenticate("Bearer " + token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func mustSign(t *testing.T, codec *TokenCodec, kind domain.TokenKind) string {
	t.Helper()
	token, _, err := codec.Sign("a@x.io", kind, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}
