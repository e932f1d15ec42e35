// Package kvstore defines the durable string key-value contract the engine
// persists through, plus the shipped backends (in-memory, redis, postgres,
// sqlite). Backends are interchangeable; the typed storage layer above them
// owns all serialization.
package kvstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("kvstore: key not found")

type Store interface {
	// Get returns the value for key, ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) (string, error)

	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
