package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/verdantmarket/cartsync/pkg/errors"
)

// fakeKV mimics the redis guest store with an in-memory map.
type fakeKV struct {
	mu     sync.Mutex
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (kv *fakeKV) Get(ctx context.Context, key string) (string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.getErr != nil {
		return "", kv.getErr
	}
	value, ok := kv.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (kv *fakeKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.setErr != nil {
		return kv.setErr
	}
	kv.data[key] = value.(string)
	kv.ttls[key] = ttl
	return nil
}

func (kv *fakeKV) Del(ctx context.Context, keys ...string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	for _, key := range keys {
		delete(kv.data, key)
	}
	return nil
}

func (kv *fakeKV) GuestCartKey(token string) string {
	return "cs:guest_cart:" + token
}

func TestGuestBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	backend := NewGuestBackend(kv, "token-1", time.Hour, testLogger())

	lines := []Line{baseLine(uuid.New(), 2, "10.00")}
	if err := backend.ReplaceAll(ctx, lines); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if kv.ttls["cs:guest_cart:token-1"] != time.Hour {
		t.Fatal("guest cart TTL not applied")
	}

	loaded, err := backend.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Quantity != 2 {
		t.Fatalf("unexpected loaded lines: %+v", loaded)
	}
}

func TestGuestBackendMissingKeyIsEmpty(t *testing.T) {
	backend := NewGuestBackend(newFakeKV(), "token-1", time.Hour, testLogger())

	lines, err := backend.Load(context.Background())
	if err != nil {
		t.Fatalf("missing key should not error: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(lines))
	}
}

func TestGuestBackendCorruptPayloadResets(t *testing.T) {
	kv := newFakeKV()
	kv.data["cs:guest_cart:token-1"] = "{not json"
	backend := NewGuestBackend(kv, "token-1", time.Hour, testLogger())

	lines, err := backend.Load(context.Background())
	if err != nil {
		t.Fatalf("corrupt payload should degrade to empty, got error: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(lines))
	}
}

func TestGuestBackendTransportErrorSurfaces(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	backend := NewGuestBackend(kv, "token-1", time.Hour, testLogger())

	_, err := backend.Load(context.Background())
	if err == nil {
		t.Fatal("transport errors must surface, not masquerade as an empty cart")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestGuestBackendEmptyListDeletesKey(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	backend := NewGuestBackend(kv, "token-1", time.Hour, testLogger())

	if err := backend.ReplaceAll(ctx, []Line{baseLine(uuid.New(), 1, "10.00")}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if err := backend.ReplaceAll(ctx, nil); err != nil {
		t.Fatalf("empty replace failed: %v", err)
	}

	if _, ok := kv.data["cs:guest_cart:token-1"]; ok {
		t.Fatal("empty cart should delete the key, not store an empty list")
	}
}

func TestGuestBackendStoredPayloadIsJSONList(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	backend := NewGuestBackend(kv, "token-1", time.Hour, testLogger())

	if err := backend.ReplaceAll(ctx, []Line{baseLine(uuid.New(), 1, "10.00")}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	var decoded []Line
	if err := json.Unmarshal([]byte(kv.data["cs:guest_cart:token-1"]), &decoded); err != nil {
		t.Fatalf("stored payload is not a JSON line list: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("unexpected decoded payload: %+v", decoded)
	}
}

func TestGuestBackendWriteErrorSurfaces(t *testing.T) {
	kv := newFakeKV()
	kv.setErr = errors.New("connection refused")
	backend := NewGuestBackend(kv, "token-1", time.Hour, testLogger())

	err := backend.ReplaceAll(context.Background(), []Line{baseLine(uuid.New(), 1, "10.00")})
	if err == nil {
		t.Fatal("expected write error to surface")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
