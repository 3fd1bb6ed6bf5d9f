package cache

import (
	"context"
	"errors"
	"time"
)

// NoExpiration keeps a value until it is deleted
const NoExpiration time.Duration = -1

var (
	// ErrMiss is returned when a key is absent or expired
	ErrMiss = errors.New("cache: miss")
	// ErrInvalidBackend is returned for a backend name the service does not know
	ErrInvalidBackend = errors.New("cache: invalid backend")
)

// Backend stores raw values under fully built keys. A ttl of NoExpiration
// keeps the value forever.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) (bool, error)
	Touch(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Has(ctx context.Context, key string) (bool, error)
	Close() error
}
