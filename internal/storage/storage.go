package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("record not found")

// Store is the flat key/value contract the auth subsystem runs on. A zero ttl
// means the record does not expire. Store-side eviction is a cleanup
// optimization only; callers recheck expiries themselves.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
