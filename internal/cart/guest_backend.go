package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/verdantmarket/cartsync/pkg/errors"
	"github.com/verdantmarket/cartsync/pkg/logger"
)

// GuestStore is the slice of the redis client the guest backend needs.
type GuestStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	GuestCartKey(token string) string
}

// GuestBackend persists an unauthenticated cart as one serialized JSON list
// under a single namespaced key scoped by the opaque guest token.
type GuestBackend struct {
	kv    GuestStore
	token string
	ttl   time.Duration
	logg  *logger.Logger
}

func NewGuestBackend(kv GuestStore, token string, ttl time.Duration, logg *logger.Logger) *GuestBackend {
	return &GuestBackend{kv: kv, token: token, ttl: ttl, logg: logg}
}

func (b *GuestBackend) Name() string { return "guest" }

// Load returns the stored lines. A missing key is an empty cart. A corrupt
// payload is logged and treated as empty rather than failing the caller; the
// next write overwrites it. Transport errors are surfaced so the merge
// coordinator never mistakes an unreachable store for an empty one.
func (b *GuestBackend) Load(ctx context.Context) ([]Line, error) {
	payload, err := b.kv.Get(ctx, b.key())
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Line{}, nil
		}
		return []Line{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest cart")
	}

	var lines []Line
	if err := json.Unmarshal([]byte(payload), &lines); err != nil {
		if b.logg != nil {
			b.logg.Error(ctx, "guest cart payload corrupt, resetting to empty", err)
		}
		return []Line{}, nil
	}
	return lines, nil
}

// ReplaceAll overwrites the stored list. An empty list deletes the key.
func (b *GuestBackend) ReplaceAll(ctx context.Context, lines []Line) error {
	if len(lines) == 0 {
		if err := b.kv.Del(ctx, b.key()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear guest cart")
		}
		return nil
	}

	payload, err := json.Marshal(lines)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode guest cart")
	}
	if err := b.kv.Set(ctx, b.key(), string(payload), b.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist guest cart")
	}
	return nil
}

func (b *GuestBackend) key() string {
	return b.kv.GuestCartKey(b.token)
}
