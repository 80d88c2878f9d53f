package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"hemoscan/internal/config"
	"hemoscan/internal/db"
	"hemoscan/internal/email"
	apihttp "hemoscan/internal/http"
	"hemoscan/internal/llm"
	"hemoscan/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.LogDev)
	defer logger.Sync()

	if cfg.UsesDevSecret() {
		logger.Warn("jwt secret is the development default; set HEMOSCAN_JWT_SECRET")
	}

	stores, err := db.Open(ctx, cfg, logger, true)
	if err != nil {
		logger.Fatal("store connect", zap.Error(err))
	}
	defer stores.Close(context.Background())

	var resetSender email.Sender = email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			TLS:      cfg.SMTPUseTLS,
		}, cfg.FrontendURL)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			resetSender = sender
		}
	}

	limiter := service.NewRateLimiter(10*time.Minute, 10)
	states := service.NewMemoryStateStore()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory limiter and oauth state", zap.Error(err))
		} else {
			limiter = service.NewRedisRateLimiter(logger, redisClient, 10*time.Minute, 10)
			states = service.NewRedisStateStore(redisClient)
		}
		cancel()
	}

	codec := service.NewTokenCodec(cfg.JWTSecret)
	sessions := service.NewSessionService(
		logger,
		stores.Users,
		service.NewBcryptHasher(bcrypt.DefaultCost),
		codec,
		resetSender,
		limiter,
		service.SessionConfig{
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
			ResetTTL:   cfg.ResetTTL,
		},
	)

	var provider service.IdentityProvider
	if cfg.GoogleConfigured() {
		provider = service.NewGoogleProvider(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.BackendURL+"/api/auth/google/callback",
		)
	} else {
		logger.Info("google oauth not configured")
	}
	federation := service.NewFederationService(logger, provider, states, sessions)

	gemini := llm.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTemperature, logger)
	if !gemini.Configured() {
		logger.Info("gemini api key not configured; ai routes will return 503")
	}

	router := apihttp.NewRouter(logger, cfg.AllowedOrigins, service.NewAuthenticator(codec), apihttp.Handlers{
		Auth:   apihttp.NewAuthHandler(logger, sessions, cfg.ExposeResetToken),
		OAuth:  apihttp.NewOAuthHandler(logger, federation, cfg.FrontendURL),
		Health: apihttp.NewHealthHandler(logger, stores.Pinger),
		Data:   apihttp.NewDataHandler(logger, service.NewRecordService(logger, stores.CBC, stores.Symptoms)),
		AI:     apihttp.NewAIHandler(logger, service.NewAssistantService(logger, gemini)),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("store", cfg.Store))

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logger.Info("shutting down server")
	case err := <-errChan:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	// Correos de reseteo pendientes.
	sessions.WaitDeliveries()
}

func newLogger(dev bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if dev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Printf("warning: zap init: %v", err)
		return zap.NewNop()
	}
	return logger
}
