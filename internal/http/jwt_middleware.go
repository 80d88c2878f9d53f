package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hemoscan/internal/service"
)

const authEmailKey = "auth_email"

// JWTAuthMiddleware valida el access token y guarda el email en el contexto.
func JWTAuthMiddleware(authn *service.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authn == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
			return
		}
		email, err := authn.Authenticate(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(authEmailKey, email)
		c.Next()
	}
}

// GetAuthEmail obtiene el email autenticado desde el contexto.
func GetAuthEmail(c *gin.Context) (string, bool) {
	email := c.GetString(authEmailKey)
	return email, email != ""
}

// RequireSelf corta con 403 si el parametro de ruta no es el llamador.
func RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, ok := GetAuthEmail(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if c.Param(param) != email {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
