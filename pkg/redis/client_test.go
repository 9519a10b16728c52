package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "login:127.0.0.1", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected allowed on first request")
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "login:127.0.0.1", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "login:127.0.0.1", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestHashLifecycle(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	key := client.DocumentKey("orders")

	created, err := client.HSetNX(ctx, key, "ORD1", `{"id":"ORD1"}`)
	if err != nil || !created {
		t.Fatalf("expected first HSetNX to create, got created=%v err=%v", created, err)
	}
	created, err = client.HSetNX(ctx, key, "ORD1", `{"id":"other"}`)
	if err != nil || created {
		t.Fatalf("expected second HSetNX to be a no-op, got created=%v err=%v", created, err)
	}

	if err := client.HSet(ctx, key, "ORD2", `{"id":"ORD2"}`); err != nil {
		t.Fatalf("hset failed: %v", err)
	}
	all, err := client.HGetAll(ctx, key)
	if err != nil {
		t.Fatalf("hgetall failed: %v", err)
	}
	if len(all) != 2 || all["ORD1"] != `{"id":"ORD1"}` {
		t.Fatalf("unexpected hash contents %v", all)
	}

	if err := client.HDel(ctx, key, "ORD1"); err != nil {
		t.Fatalf("hdel failed: %v", err)
	}
	if _, err := client.HGet(ctx, key, "ORD1"); !errors.Is(err, Nil) {
		t.Fatalf("expected Nil after delete, got %v", err)
	}
}

func TestPublishRecordsMessage(t *testing.T) {
	mock := newMockCmdable()
	client := &Client{store: mock}
	if err := client.Publish(context.Background(), "mch:changefeed", "payload"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if got := mock.published["mch:changefeed"]; len(got) != 1 || got[0] != "payload" {
		t.Fatalf("unexpected published messages %v", got)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
	if _, err := client.Subscribe(context.Background(), "x"); err == nil {
		t.Fatal("expected subscribe error")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.DocumentKey("stores"); got != "mch:doc:stores" {
		t.Fatalf("unexpected document key %s", got)
	}
	if got := client.RateLimitKey("scope"); got != "mch:rate_limit:scope" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.DocumentKey(""); got != "mch:doc" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

type mockCmdable struct {
	hashes      map[string]map[string]string
	incr        map[string]int64
	expireCalls []expireCall
	published   map[string][]string
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		hashes:    make(map[string]map[string]string),
		incr:      make(map[string]int64),
		published: make(map[string][]string),
	}
}

func (m *mockCmdable) hash(key string) map[string]string {
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	return h
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.hashes, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) HGet(ctx context.Context, key, field string) *redis.StringCmd {
	v, ok := m.hash(key)[field]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	out := make(map[string]string)
	for k, v := range m.hash(key) {
		out[k] = v
	}
	return redis.NewMapStringStringResult(out, nil)
}

func (m *mockCmdable) HSet(ctx context.Context, key string, values ...any) *redis.IntCmd {
	h := m.hash(key)
	var added int64
	for i := 0; i+1 < len(values); i += 2 {
		field := fmt.Sprint(values[i])
		if _, ok := h[field]; !ok {
			added++
		}
		h[field] = fmt.Sprint(values[i+1])
	}
	return redis.NewIntResult(added, nil)
}

func (m *mockCmdable) HSetNX(ctx context.Context, key, field string, value any) *redis.BoolCmd {
	h := m.hash(key)
	if _, ok := h[field]; ok {
		return redis.NewBoolResult(false, nil)
	}
	h[field] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd {
	h := m.hash(key)
	for _, f := range fields {
		delete(h, f)
	}
	return redis.NewIntResult(int64(len(fields)), nil)
}

func (m *mockCmdable) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	m.published[channel] = append(m.published[channel], fmt.Sprint(message))
	return redis.NewIntResult(1, nil)
}
