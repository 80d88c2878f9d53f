package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemoryStateStore(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	if err := store.Store(ctx, "s1", time.Minute); err != nil {
		t.Fatalf("store: %v", err)
	}
	ok, err := store.Consume(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("expected first consume to succeed, got ok=%v err=%v", ok, err)
	}
	ok, _ = store.Consume(ctx, "s1")
	if ok {
		t.Fatalf("expected state to be single-use")
	}

	if err := store.Store(ctx, "stale", -time.Second); err != nil {
		t.Fatalf("store: %v", err)
	}
	if ok, _ := store.Consume(ctx, "stale"); ok {
		t.Fatalf("expected expired state to be rejected")
	}
	if ok, _ := store.Consume(ctx, "never-issued"); ok {
		t.Fatalf("expected unknown state to be rejected")
	}
}

type mockRedisKV struct {
	keys    map[string]time.Duration
	lastKey string
	setErr  error
	delErr  error
}

func newMockRedisKV() *mockRedisKV {
	return &mockRedisKV{keys: make(map[string]time.Duration)}
}

func (m *mockRedisKV) Set(ctx context.Context, key string, _ interface{}, expiration time.Duration) *redis.StatusCmd {
	m.lastKey = key
	cmd := redis.NewStatusCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	m.keys[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if m.delErr != nil {
		cmd.SetErr(m.delErr)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := m.keys[k]; ok {
			delete(m.keys, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestRedisStateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("store then consume once", func(t *testing.T) {
		kv := newMockRedisKV()
		store := &redisStateStore{client: kv, prefix: "auth:oauth_state:"}

		if err := store.Store(ctx, " s1 ", 0); err != nil {
			t.Fatalf("store: %v", err)
		}
		if kv.lastKey != "auth:oauth_state:s1" {
			t.Fatalf("unexpected key, got %q", kv.lastKey)
		}
		if kv.keys["auth:oauth_state:s1"] != defaultStateTTL {
			t.Fatalf("expected default ttl, got %v", kv.keys["auth:oauth_state:s1"])
		}
		ok, err := store.Consume(ctx, "s1")
		if err != nil || !ok {
			t.Fatalf("expected consume to succeed, got ok=%v err=%v", ok, err)
		}
		if ok, _ := store.Consume(ctx, "s1"); ok {
			t.Fatalf("expected state to be single-use")
		}
	})

	t.Run("empty state", func(t *testing.T) {
		kv := newMockRedisKV()
		store := &redisStateStore{client: kv, prefix: "p:"}
		if err := store.Store(ctx, "  ", time.Minute); err != nil {
			t.Fatalf("store: %v", err)
		}
		if len(kv.keys) != 0 {
			t.Fatalf("expected empty state to be ignored")
		}
		if ok, _ := store.Consume(ctx, ""); ok {
			t.Fatalf("expected empty state to be rejected")
		}
	})

	t.Run("redis errors surface", func(t *testing.T) {
		kv := newMockRedisKV()
		kv.setErr = errors.New("redis down")
		kv.delErr = errors.New("redis down")
		store := &redisStateStore{client: kv, prefix: "p:"}
		if err := store.Store(ctx, "s1", time.Minute); err == nil {
			t.Fatalf("expected store error")
		}
		if _, err := store.Consume(ctx, "s1"); err == nil {
			t.Fatalf("expected consume error")
		}
	})
}

func TestNewRedisStateStore_NilClient(t *testing.T) {
	if NewRedisStateStore(nil) != nil {
		t.Fatalf("expected nil store for nil client")
	}
}
