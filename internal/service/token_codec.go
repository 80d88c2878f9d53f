package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"hemoscan/internal/domain"
)

const tokenIssuer = "hemoscan"

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// TokenCodec firma y valida JWT tipados (access / refresh) con HS256.
type TokenCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// TokenClaims es el resultado de una verificacion exitosa.
type TokenClaims struct {
	Subject   string
	Kind      domain.TokenKind
	ExpiresAt time.Time
}

type jwtClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		issuer: tokenIssuer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Sign emite un token para subject con expiracion absoluta now+ttl (UTC).
func (c *TokenCodec) Sign(subject string, kind domain.TokenKind, ttl time.Duration) (string, time.Time, error) {
	if len(c.secret) == 0 {
		return "", time.Time{}, ErrTokenInvalid
	}
	subject = strings.TrimSpace(subject)
	typ := kind.String()
	if subject == "" || typ == "" || ttl <= 0 {
		return "", time.Time{}, ErrTokenInvalid
	}

	now := c.now()
	expiresAt := now.Add(ttl)
	claims := jwtClaims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify comprueba primero la firma y luego la expiracion.
func (c *TokenCodec) Verify(tokenString string) (TokenClaims, error) {
	if len(c.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return TokenClaims{}, ErrTokenInvalid
	}

	var claims jwtClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return TokenClaims{}, ErrTokenExpired
		}
		return TokenClaims{}, ErrTokenInvalid
	}

	kind, ok := domain.ParseTokenKind(claims.TokenType)
	if !ok {
		return TokenClaims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.ExpiresAt == nil {
		return TokenClaims{}, ErrTokenInvalid
	}
	return TokenClaims{
		Subject:   claims.Subject,
		Kind:      kind,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}

// Fingerprint es un digest rapido (sha256 hex) para guardar referencias a
// tokens vivos sin almacenar el token en claro.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
