package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"hemoscan/internal/domain"
	"hemoscan/internal/repository"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrInvalidInput        = errors.New("invalid input")
	ErrRateLimited         = errors.New("rate limited")
)

const (
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
	DefaultResetTTL   = time.Hour

	resetTokenBytes      = 32
	federatedSecretBytes = 16
	resetDeliveryTimeout = 30 * time.Second
)

// ResetNotifier entrega el token de reseteo por un canal fuera de banda.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, toEmail, token string, expiresAt time.Time) error
}

// TokenPair es lo que recibe el cliente tras login, refresh o federacion.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Email        string
}

type SessionConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
}

// SessionService orquesta login, rotacion de refresh, logout, reseteo de
// contraseña y login federado. El unico estado compartido es el store.
type SessionService struct {
	logger   *zap.Logger
	users    repository.UserRepository
	hasher   PasswordHasher
	codec    *TokenCodec
	notifier ResetNotifier
	limiter  RateLimiter
	cfg      SessionConfig
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string

	deliveries sync.WaitGroup
}

func NewSessionService(
	logger *zap.Logger,
	users repository.UserRepository,
	hasher PasswordHasher,
	codec *TokenCodec,
	notifier ResetNotifier,
	limiter RateLimiter,
	cfg SessionConfig,
) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = DefaultResetTTL
	}
	return &SessionService{
		logger:   logger,
		users:    users,
		hasher:   hasher,
		codec:    codec,
		notifier: notifier,
		limiter:  limiter,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *SessionService) Register(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return ErrInvalidInput
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	_, err = s.users.Create(ctx, domain.User{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return ErrEmailTaken
	}
	return err
}

func (s *SessionService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return TokenPair{}, ErrInvalidCredentials
	}
	if s.limiter != nil && !s.limiter.Allow("login:"+email) {
		return TokenPair{}, ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Mismo costo de bcrypt que un usuario existente.
			s.hasher.Verify(password, s.dummyPasswordHash())
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return TokenPair{}, ErrInvalidCredentials
	}
	return s.issue(ctx, user.Email)
}

func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	switch claims.Kind {
	case domain.TokenKindRefresh:
	case domain.TokenKindAccess:
		return TokenPair{}, ErrInvalidRefreshToken
	default:
		return TokenPair{}, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrInvalidRefreshToken
		}
		return TokenPair{}, err
	}
	if !fingerprintMatches(user.RefreshTokenHash, Fingerprint(refreshToken)) {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	if !user.HasLiveRefreshToken(s.now()) {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	return s.issue(ctx, user.Email)
}

// Logout nunca falla hacia el llamador: sin token valido no hay nada que revocar.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) {
	if strings.TrimSpace(refreshToken) == "" {
		s.logoutNoop("no refresh token supplied")
		return
	}
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		s.logoutNoop("refresh token not verifiable")
		return
	}
	if claims.Kind != domain.TokenKindRefresh {
		s.logoutNoop("token is not a refresh token")
		return
	}
	err = s.users.ClearRefreshToken(ctx, claims.Subject)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		s.logoutNoop("unknown subject")
	default:
		s.logger.Error("logout clear refresh token failed", zap.Error(err))
	}
}

func (s *SessionService) logoutNoop(reason string) {
	s.logger.Debug("logout: nothing to revoke", zap.String("reason", reason))
}

// RequestPasswordReset responde igual exista o no el email. Devuelve el token
// en claro solo si se emitio uno; el llamador decide si exponerlo.
func (s *SessionService) RequestPasswordReset(ctx context.Context, email string) string {
	email = normalizeEmail(email)
	if email == "" {
		return ""
	}
	if s.limiter != nil && !s.limiter.Allow("reset:"+email) {
		s.logger.Warn("password reset rate limited", zap.String("email", email))
		return ""
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("password reset lookup failed", zap.Error(err))
		}
		return ""
	}

	raw, err := randomToken(resetTokenBytes)
	if err != nil {
		s.logger.Error("password reset token generation failed", zap.Error(err))
		return ""
	}
	expiresAt := s.now().Add(s.cfg.ResetTTL)
	if err := s.users.SetResetToken(ctx, user.Email, Fingerprint(raw), expiresAt); err != nil {
		s.logger.Error("password reset store failed", zap.Error(err))
		return ""
	}

	s.deliverReset(ctx, user.Email, raw, expiresAt)
	return raw
}

// deliverReset envia el correo fuera del ciclo del request.
func (s *SessionService) deliverReset(ctx context.Context, toEmail, token string, expiresAt time.Time) {
	if s.notifier == nil {
		return
	}
	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resetDeliveryTimeout)
		defer cancel()
		if err := s.notifier.SendPasswordReset(sendCtx, toEmail, token, expiresAt); err != nil {
			s.logger.Warn("password reset delivery failed", zap.Error(err), zap.String("email", toEmail))
		}
	}()
}

// WaitDeliveries bloquea hasta que terminen los envios de reseteo en curso.
func (s *SessionService) WaitDeliveries() {
	s.deliveries.Wait()
}

func (s *SessionService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidResetToken
	}
	if newPassword == "" {
		return ErrInvalidInput
	}

	// El hash va antes de consumir: una contraseña invalida no quema el token.
	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	user, err := s.users.ConsumeResetToken(ctx, Fingerprint(token), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.Email, passwordHash); err != nil {
		return err
	}
	if err := s.users.ClearRefreshToken(ctx, user.Email); err != nil {
		s.logger.Warn("clear refresh token after reset failed", zap.Error(err))
	}
	return nil
}

// FederatedLogin concilia una identidad externa con un usuario local y emite
// tokens igual que Login.
func (s *SessionService) FederatedLogin(ctx context.Context, email string) (TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" {
		return TokenPair{}, ErrInvalidInput
	}

	_, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		if err := s.createFederatedUser(ctx, email); err != nil {
			return TokenPair{}, err
		}
	} else if err != nil {
		return TokenPair{}, err
	}
	return s.issue(ctx, email)
}

func (s *SessionService) createFederatedUser(ctx context.Context, email string) error {
	secret, err := randomToken(federatedSecretBytes)
	if err != nil {
		return err
	}
	passwordHash, err := s.hasher.Hash(secret)
	if err != nil {
		return err
	}
	_, err = s.users.Create(ctx, domain.User{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		// Otro callback concurrente lo creo primero.
		return nil
	}
	return err
}

// RevokeSessions invalida el refresh token vivo del usuario.
func (s *SessionService) RevokeSessions(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrInvalidInput
	}
	return s.users.ClearRefreshToken(ctx, email)
}

func (s *SessionService) issue(ctx context.Context, email string) (TokenPair, error) {
	access, _, err := s.codec.Sign(email, domain.TokenKindAccess, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExpiresAt, err := s.codec.Sign(email, domain.TokenKindRefresh, s.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.SetRefreshToken(ctx, email, Fingerprint(refresh), refreshExpiresAt); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		Email:        email,
	}, nil
}

func (s *SessionService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		secret, err := randomToken(federatedSecretBytes)
		if err != nil {
			secret = "hemoscan-dummy-password"
		}
		hash, err := s.hasher.Hash(secret)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func fingerprintMatches(stored, candidate string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// normalizeEmail solo recorta espacios: el email se conserva tal cual.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
