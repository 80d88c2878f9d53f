package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hemoscan/internal/service"
)

// Handlers agrupa los handlers que monta el router.
type Handlers struct {
	Auth   *AuthHandler
	OAuth  *OAuthHandler
	Health *HealthHandler
	Data   *DataHandler
	AI     *AIHandler
}

// NewRouter configura el router de Gin con middlewares y rutas base.
func NewRouter(
	logger *zap.Logger,
	allowedOrigins []string,
	authn *service.Authenticator,
	h Handlers,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery())
	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	api := r.Group("/api")

	health := api.Group("/health")
	health.GET("", h.Health.Status)
	health.GET("/", h.Health.Status)
	health.GET("/db", h.Health.Database)

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)
	auth.POST("/password-reset", h.Auth.RequestPasswordReset)
	auth.POST("/password-reset/confirm", h.Auth.ConfirmPasswordReset)
	auth.GET("/google/login", h.OAuth.GoogleLogin)
	auth.GET("/google/callback", h.OAuth.GoogleCallback)

	data := api.Group("/data", JWTAuthMiddleware(authn))
	data.POST("/cbc", h.Data.CreateCBCReport)
	data.GET("/cbc/:email", RequireSelf("email"), h.Data.ListCBCReports)
	data.POST("/symptoms", h.Data.CreateSymptoms)
	data.GET("/symptoms/:email", RequireSelf("email"), h.Data.ListSymptoms)

	ai := api.Group("/ai", JWTAuthMiddleware(authn))
	ai.POST("/chat", h.AI.Chat)
	ai.POST("/summary", h.AI.Summary)
	ai.POST("/diet", h.AI.Diet)
	ai.POST("/translate", h.AI.Translate)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
