package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/cropmarket-backend/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestLookupSetDelLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if _, ok, err := client.Lookup(ctx, "cm:cart:a"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := client.Set(ctx, "cm:cart:a", []byte(`[{"id":"crop-1"}]`), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if mock.ttls["cm:cart:a"] != time.Minute {
		t.Fatalf("expected ttl to be forwarded, got %v", mock.ttls["cm:cart:a"])
	}
	data, ok, err := client.Lookup(ctx, "cm:cart:a")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(data) != `[{"id":"crop-1"}]` {
		t.Fatalf("unexpected payload %s", data)
	}

	if err := client.Del(ctx, "cm:cart:a"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, ok, _ := client.Lookup(ctx, "cm:cart:a"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestLookupPropagatesErrors(t *testing.T) {
	mock := newMockCmdable()
	mock.getErr = errors.New("connection reset")
	client := &Client{store: mock}

	if _, _, err := client.Lookup(context.Background(), "cm:cart:a"); err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close should be a no-op, got %v", err)
	}
}

func TestCartKey(t *testing.T) {
	client := &Client{}
	if got := client.CartKey("device-1", "cartItems"); got != "cm:cart:device-1:cartItems" {
		t.Fatalf("unexpected cart key %s", got)
	}
	if got := client.CartKey("", " cartItems "); got != "cm:cart:cartItems" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 2 || opts.PoolSize != 7 {
		t.Fatalf("unexpected options db=%d pool=%d", opts.DB, opts.PoolSize)
	}
}

type mockCmdable struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprint(v)
	}
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
