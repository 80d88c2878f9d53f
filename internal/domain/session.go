package domain

// TokenKind distingue access de refresh. El valor cero no es un tipo valido.
type TokenKind uint8

const (
	TokenKindAccess TokenKind = iota + 1
	TokenKindRefresh
)

func (k TokenKind) String() string {
	switch k {
	case TokenKindAccess:
		return "access"
	case TokenKindRefresh:
		return "refresh"
	default:
		return ""
	}
}

// ParseTokenKind convierte el claim "typ" en un TokenKind.
func ParseTokenKind(s string) (TokenKind, bool) {
	switch s {
	case "access":
		return TokenKindAccess, true
	case "refresh":
		return TokenKindRefresh, true
	default:
		return 0, false
	}
}
