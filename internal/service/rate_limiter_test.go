package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestMemoryRateLimiter(t *testing.T) {
	l := NewRateLimiter(time.Minute, 2)

	if !l.Allow("login:a@x.io") || !l.Allow("login:a@x.io") {
		t.Fatalf("expected first attempts to be allowed")
	}
	if l.Allow("login:a@x.io") {
		t.Fatalf("expected attempt over max to be denied")
	}
	if !l.Allow("login:b@x.io") {
		t.Fatalf("expected keys to be counted independently")
	}
}

func TestMemoryRateLimiter_WindowSlides(t *testing.T) {
	l := NewRateLimiter(20*time.Millisecond, 1)

	if !l.Allow("k") {
		t.Fatalf("expected first attempt to be allowed")
	}
	if l.Allow("k") {
		t.Fatalf("expected second attempt to be denied")
	}
	time.Sleep(40 * time.Millisecond)
	if !l.Allow("k") {
		t.Fatalf("expected attempt after window to be allowed")
	}
}

func TestMemoryRateLimiter_ForgetsStaleKeys(t *testing.T) {
	l := NewRateLimiter(10*time.Millisecond, 10).(*memoryRateLimiter)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	for i := 0; i < 10000; i++ {
		l.Allow(fmt.Sprintf("login:user%d@x.io", i))
	}
	if len(l.hits) != 10000 {
		t.Fatalf("expected 10000 tracked keys, got %d", len(l.hits))
	}

	clock = clock.Add(20 * time.Millisecond)
	if !l.Allow("login:fresh@x.io") {
		t.Fatalf("expected fresh key to be allowed")
	}
	if len(l.hits) != 1 {
		t.Fatalf("expected stale keys to be dropped after the window, got %d", len(l.hits))
	}
}

func TestMemoryRateLimiter_DropsKeyWhoseHitsExpired(t *testing.T) {
	l := NewRateLimiter(time.Minute, 2).(*memoryRateLimiter)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	l.Allow("k")
	l.Allow("k")
	if l.Allow("k") {
		t.Fatalf("expected third attempt to be denied")
	}

	clock = clock.Add(2 * time.Minute)
	if !l.Allow("k") {
		t.Fatalf("expected attempt after window to be allowed")
	}
	if got := len(l.hits["k"]); got != 1 {
		t.Fatalf("expected only the new attempt to be kept, got %d", got)
	}
}

type mockRedisEvaler struct {
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	result     int64
	err        error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func newTestRedisLimiter(client redisEvaler, window time.Duration, max int) *redisRateLimiter {
	return &redisRateLimiter{
		logger: zap.NewNop(),
		client: client,
		window: window,
		max:    max,
		prefix: "hemoscan:rl:",
	}
}

func TestRedisRateLimiterAllow(t *testing.T) {
	t.Run("nil receiver fail-open", func(t *testing.T) {
		var l *redisRateLimiter
		if !l.Allow("login:a@x.io") {
			t.Fatalf("expected fail-open for nil limiter")
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 1}
		l := newTestRedisLimiter(mock, time.Minute, 3)
		if l.Allow("   ") {
			t.Fatalf("expected empty key to be rejected")
		}
		if mock.lastScript != "" {
			t.Fatalf("expected redis not to be called for an empty key")
		}
	})

	t.Run("allowed by script", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 1}
		l := newTestRedisLimiter(mock, 2*time.Minute, 3)
		if !l.Allow(" login:A@x.io ") {
			t.Fatalf("expected allow when script returns 1")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "hemoscan:rl:login:A@x.io" {
			t.Fatalf("expected trimmed key with original casing, got %+v", mock.lastKeys)
		}
		if len(mock.lastArgs) != 2 || mock.lastArgs[0] != int64(120000) || mock.lastArgs[1] != 3 {
			t.Fatalf("expected window ms=120000 and max=3, got %+v", mock.lastArgs)
		}
		if mock.lastScript != redisWindowScript {
			t.Fatalf("expected window script")
		}
	})

	t.Run("sub-second window kept in ms", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 1}
		l := newTestRedisLimiter(mock, 250*time.Millisecond, 3)
		l.Allow("k")
		if len(mock.lastArgs) != 2 || mock.lastArgs[0] != int64(250) {
			t.Fatalf("expected window ms=250, got %+v", mock.lastArgs)
		}
	})

	t.Run("denied by script", func(t *testing.T) {
		l := newTestRedisLimiter(&mockRedisEvaler{result: 0}, time.Minute, 3)
		if l.Allow("login:a@x.io") {
			t.Fatalf("expected deny when script returns 0")
		}
	})

	t.Run("redis error fail-open", func(t *testing.T) {
		l := newTestRedisLimiter(&mockRedisEvaler{err: errors.New("redis down")}, time.Minute, 3)
		if !l.Allow("login:a@x.io") {
			t.Fatalf("expected fail-open on redis errors")
		}
	})
}

func TestNewRedisRateLimiter_NilClient(t *testing.T) {
	if l := NewRedisRateLimiter(zap.NewNop(), nil, time.Minute, 3); l != nil {
		t.Fatalf("expected nil limiter without a client")
	}
}
