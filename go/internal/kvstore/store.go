// Package kvstore provides the durable string-keyed store behind the profile collection.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key is absent
var ErrNotFound = errors.New("key not found")

// UpdateFunc receives the current value (nil when absent) and returns the value to store.
// Returning an error aborts the update and leaves the stored value untouched.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is a durable key-value store
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Update performs an atomic read-modify-write of key
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Close() error
}

// Pinger is implemented by stores backed by a remote database
type Pinger interface {
	Ping(ctx context.Context) error
}
