package service

import (
	"errors"
	"strings"

	"hemoscan/internal/domain"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator valida el header Authorization de las llamadas protegidas.
type Authenticator struct {
	codec *TokenCodec
}

func NewAuthenticator(codec *TokenCodec) *Authenticator {
	return &Authenticator{codec: codec}
}

// Authenticate devuelve el email del llamador. Solo acepta access tokens.
func (a *Authenticator) Authenticate(authorizationHeader string) (string, error) {
	token, ok := bearerToken(authorizationHeader)
	if !ok {
		return "", ErrUnauthenticated
	}
	if a == nil || a.codec == nil {
		return "", ErrUnauthenticated
	}
	claims, err := a.codec.Verify(token)
	if err != nil {
		return "", ErrUnauthenticated
	}
	switch claims.Kind {
	case domain.TokenKindAccess:
		return claims.Subject, nil
	case domain.TokenKindRefresh:
		return "", ErrUnauthenticated
	default:
		return "", ErrUnauthenticated
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
