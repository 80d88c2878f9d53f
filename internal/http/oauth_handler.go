package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hemoscan/internal/service"
)

// OAuthHandler expone el login federado con Google.
type OAuthHandler struct {
	logger      *zap.Logger
	federation  *service.FederationService
	frontendURL string
}

func NewOAuthHandler(logger *zap.Logger, federation *service.FederationService, frontendURL string) *OAuthHandler {
	return &OAuthHandler{
		logger:      logger,
		federation:  federation,
		frontendURL: frontendURL,
	}
}

// GoogleLogin maneja GET /api/auth/google/login.
func (h *OAuthHandler) GoogleLogin(c *gin.Context) {
	redirect, err := h.federation.Begin(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrProviderNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google oauth not configured"})
			return
		}
		h.logger.Error("oauth begin failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google oauth unavailable"})
		return
	}
	c.Redirect(http.StatusFound, redirect)
}

// GoogleCallback maneja GET /api/auth/google/callback y redirige al frontend
// con los tokens en la query.
func (h *OAuthHandler) GoogleCallback(c *gin.Context) {
	if !h.federation.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google oauth not configured"})
		return
	}
	if c.Query("error") != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "google login was cancelled"})
		return
	}

	pair, err := h.federation.Complete(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOAuthStateInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		case errors.Is(err, service.ErrIdentityNoEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "google account has no email"})
		case errors.Is(err, service.ErrIdentityUnverified):
			c.JSON(http.StatusBadRequest, gin.H{"error": "google email not verified"})
		case errors.Is(err, service.ErrProviderNotConfigured),
			errors.Is(err, service.ErrProviderExchange):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google oauth unavailable"})
		default:
			h.logger.Error("oauth callback failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not complete login"})
		}
		return
	}

	query := url.Values{}
	query.Set("token", pair.AccessToken)
	query.Set("refresh_token", pair.RefreshToken)
	query.Set("email", pair.Email)
	c.Redirect(http.StatusFound, h.frontendURL+"/auth/google/callback?"+query.Encode())
}
