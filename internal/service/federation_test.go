package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type fakeIdentityProvider struct {
	identity  Identity
	err       error
	lastState string
	lastCode  string
}

func (f *fakeIdentityProvider) Name() string { return "fake" }

func (f *fakeIdentityProvider) AuthCodeURL(state string) string {
	f.lastState = state
	return "https://idp.test/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeIdentityProvider) Exchange(_ context.Context, code string) (Identity, error) {
	f.lastCode = code
	return f.identity, f.err
}

func newTestFederation(provider IdentityProvider) (*FederationService, *mockUserRepo) {
	sessions, repo, _ := newTestSessionService(nil)
	return NewFederationService(zap.NewNop(), provider, NewMemoryStateStore(), sessions), repo
}

func TestFederationServiceBeginComplete(t *testing.T) {
	provider := &fakeIdentityProvider{identity: Identity{Subject: "g-1", Email: "g@x.io", EmailVerified: true}}
	fed, repo := newTestFederation(provider)
	ctx := context.Background()

	redirect, err := fed.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if provider.lastState == "" || !strings.Contains(redirect, url.QueryEscape(provider.lastState)) {
		t.Fatalf("expected redirect to carry the state, got %q", redirect)
	}

	pair, err := fed.Complete(ctx, provider.lastState, "code-1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if pair.Email != "g@x.io" || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("unexpected token pair: %+v", pair)
	}
	if provider.lastCode != "code-1" {
		t.Fatalf("expected code to reach the provider, got %q", provider.lastCode)
	}
	if repo.get("g@x.io").Email == "" {
		t.Fatalf("expected federated user to be created")
	}

	if _, err := fed.Complete(ctx, provider.lastState, "code-1"); !errors.Is(err, ErrOAuthStateInvalid) {
		t.Fatalf("expected state to be single-use, got %v", err)
	}
}

func TestFederationServiceComplete_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown state", func(t *testing.T) {
		fed, _ := newTestFederation(&fakeIdentityProvider{})
		if _, err := fed.Complete(ctx, "forged", "code"); !errors.Is(err, ErrOAuthStateInvalid) {
			t.Fatalf("expected ErrOAuthStateInvalid, got %v", err)
		}
	})

	t.Run("missing code", func(t *testing.T) {
		provider := &fakeIdentityProvider{}
		fed, _ := newTestFederation(provider)
		if _, err := fed.Begin(ctx); err != nil {
			t.Fatalf("begin: %v", err)
		}
		if _, err := fed.Complete(ctx, provider.lastState, " "); !errors.Is(err, ErrOAuthStateInvalid) {
			t.Fatalf("expected ErrOAuthStateInvalid, got %v", err)
		}
	})

	t.Run("exchange error", func(t *testing.T) {
		provider := &fakeIdentityProvider{err: errors.New("invalid_grant")}
		fed, _ := newTestFederation(provider)
		if _, err := fed.Begin(ctx); err != nil {
			t.Fatalf("begin: %v", err)
		}
		if _, err := fed.Complete(ctx, provider.lastState, "code"); !errors.Is(err, ErrProviderExchange) {
			t.Fatalf("expected ErrProviderExchange, got %v", err)
		}
	})

	t.Run("no email", func(t *testing.T) {
		provider := &fakeIdentityProvider{identity: Identity{Subject: "g-1", EmailVerified: true}}
		fed, repo := newTestFederation(provider)
		if _, err := fed.Begin(ctx); err != nil {
			t.Fatalf("begin: %v", err)
		}
		if _, err := fed.Complete(ctx, provider.lastState, "code"); !errors.Is(err, ErrIdentityNoEmail) {
			t.Fatalf("expected ErrIdentityNoEmail, got %v", err)
		}
		if len(repo.users) != 0 {
			t.Fatalf("expected no user to be created")
		}
	})

	t.Run("unverified email", func(t *testing.T) {
		provider := &fakeIdentityProvider{identity: Identity{Subject: "g-1", Email: "g@x.io"}}
		fed, _ := newTestFederation(provider)
		if _, err := fed.Begin(ctx); err != nil {
			t.Fatalf("begin: %v", err)
		}
		if _, err := fed.Complete(ctx, provider.lastState, "code"); !errors.Is(err, ErrIdentityUnverified) {
			t.Fatalf("expected ErrIdentityUnverified, got %v", err)
		}
	})
}

func TestFederationService_NotConfigured(t *testing.T) {
	fed, _ := newTestFederation(nil)

	if fed.Configured() {
		t.Fatalf("expected federation without provider to be unconfigured")
	}
	if _, err := fed.Begin(context.Background()); !errors.Is(err, ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured from Begin, got %v", err)
	}
	if _, err := fed.Complete(context.Background(), "s", "c"); !errors.Is(err, ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured from Complete, got %v", err)
	}
}
