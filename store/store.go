// Package store defines the keyed byte-store abstraction behind cache
// regions.
//
// Implementations MUST be safe for concurrent use and byte-for-byte
// transparent: Get must return exactly the same []byte that was previously
// passed to Set for a key (no prepended/appended metadata, no re-encoding,
// no mutation).
//
// TTL handling differs per backend: the redis store applies it server-side,
// the memory store applies it per instance (one region = one store), and the
// file store ignores it entirely - expiry for file entries is enforced by the
// region using the entry envelope timestamp.
package store

import (
	"context"
	"time"
)

// Store is a minimal keyed byte store with enumeration.
type Store interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given TTL. May ignore the TTL when
	// the backend scopes expiry differently (see package doc).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Keys lists stored keys with the given prefix ("" = all). Listings are a
	// best-effort snapshot under concurrent writes.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Clear removes every key in the store.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Null backs disabled backends: every read misses and writes are dropped.
type Null struct{}

var _ Store = Null{}

func (Null) Get(context.Context, string) ([]byte, bool, error)       { return nil, false, nil }
func (Null) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Null) Del(context.Context, string) error                        { return nil }
func (Null) Keys(context.Context, string) ([]string, error)           { return nil, nil }
func (Null) Clear(context.Context) error                              { return nil }
func (Null) Close(context.Context) error                              { return nil }
