package cache

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound reports an absent key. Implementations must return it for
// missing keys so callers can tell "no value" apart from a backend failure.
var ErrKeyNotFound = errors.New("key not found")

type Cache interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}
