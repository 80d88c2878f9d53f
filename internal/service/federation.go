package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrProviderNotConfigured = errors.New("identity provider not configured")
	ErrOAuthStateInvalid     = errors.New("oauth state invalid")
	ErrProviderExchange      = errors.New("identity provider exchange failed")
	ErrIdentityNoEmail       = errors.New("identity has no email")
	ErrIdentityUnverified    = errors.New("identity email not verified")
)

const (
	defaultStateTTL = 10 * time.Minute
	stateBytes      = 24
)

// Identity son los claims que devuelve el proveedor externo.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// IdentityProvider abstrae el flujo authorization-code de un proveedor OAuth.
type IdentityProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}

// FederationService delega la prueba de identidad en un proveedor externo y
// concilia el resultado con un usuario local.
type FederationService struct {
	logger   *zap.Logger
	provider IdentityProvider
	states   StateStore
	sessions *SessionService
	stateTTL time.Duration
}

func NewFederationService(logger *zap.Logger, provider IdentityProvider, states StateStore, sessions *SessionService) *FederationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if states == nil {
		states = NewMemoryStateStore()
	}
	return &FederationService{
		logger:   logger,
		provider: provider,
		states:   states,
		sessions: sessions,
		stateTTL: defaultStateTTL,
	}
}

func (f *FederationService) Configured() bool {
	return f != nil && f.provider != nil
}

// Begin devuelve la URL del endpoint de autorizacion del proveedor.
func (f *FederationService) Begin(ctx context.Context) (string, error) {
	if !f.Configured() {
		return "", ErrProviderNotConfigured
	}
	state, err := randomToken(stateBytes)
	if err != nil {
		return "", err
	}
	if err := f.states.Store(ctx, state, f.stateTTL); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return f.provider.AuthCodeURL(state), nil
}

func (f *FederationService) Complete(ctx context.Context, state, code string) (TokenPair, error) {
	if !f.Configured() {
		return TokenPair{}, ErrProviderNotConfigured
	}
	state = strings.TrimSpace(state)
	code = strings.TrimSpace(code)
	if state == "" || code == "" {
		return TokenPair{}, ErrOAuthStateInvalid
	}
	ok, err := f.states.Consume(ctx, state)
	if err != nil {
		return TokenPair{}, fmt.Errorf("consume oauth state: %w", err)
	}
	if !ok {
		return TokenPair{}, ErrOAuthStateInvalid
	}

	identity, err := f.provider.Exchange(ctx, code)
	if err != nil {
		f.logger.Warn("oauth exchange failed", zap.String("provider", f.provider.Name()), zap.Error(err))
		return TokenPair{}, ErrProviderExchange
	}
	if strings.TrimSpace(identity.Email) == "" {
		return TokenPair{}, ErrIdentityNoEmail
	}
	if !identity.EmailVerified {
		return TokenPair{}, ErrIdentityUnverified
	}
	return f.sessions.FederatedLogin(ctx, identity.Email)
}
