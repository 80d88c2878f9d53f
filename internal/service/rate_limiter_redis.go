package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KEYS[1] = clave de la ventana, ARGV[1] = ventana en ms, ARGV[2] = max.
// Devuelve 1 si el intento entra en la ventana y 0 si la excede.
const redisWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

const redisLimiterTimeout = 500 * time.Millisecond

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisRateLimiter struct {
	logger *zap.Logger
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

// NewRedisRateLimiter comparte el conteo entre replicas. Ante errores de
// Redis deja pasar la solicitud.
func NewRedisRateLimiter(logger *zap.Logger, client *redis.Client, window time.Duration, max int) RateLimiter {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if window < time.Millisecond {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisRateLimiter{
		logger: logger,
		client: client,
		window: window,
		max:    max,
		prefix: "hemoscan:rl:",
	}
}

func (l *redisRateLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisLimiterTimeout)
	defer cancel()
	allowed, err := l.client.Eval(ctx, redisWindowScript, []string{l.prefix + key}, l.window.Milliseconds(), l.max).Int()
	if err != nil {
		l.logger.Warn("rate limiter redis failed, allowing", zap.String("key", key), zap.Error(err))
		return true
	}
	return allowed == 1
}
