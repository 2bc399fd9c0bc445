// Package redis implements the remote region store on go-redis. Unlike the
// other stores it also exposes glob scanning, match-deletion and a SET NX
// lock, which the region manager uses for cross-process clearing and
// distributed mutual exclusion driven by connection parameters alone.
package redis

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	st "github.com/unkn0wn-root/regioncache/store"
)

var ErrNilClient = errors.New("redis store: nil client")

type Store struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ st.Store = (*Store)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Store{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

// Dial builds a store owning a fresh client from connection parameters.
func Dial(host string, port, db int, useTLS bool) *Store {
	opts := &goredis.Options{
		Addr: fmt.Sprintf("%s:%d", host, port),
		DB:   db,
	}
	if useTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return &Store{rdb: goredis.NewClient(opts), closeClient: true}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 0 // treat non-positive TTLs as "no expiry" per store contract
	}
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *Store) Del(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// Keys lists keys under a literal prefix.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	return s.Scan(ctx, prefix+"*")
}

// Scan lists keys matching a redis glob.
func (s *Store) Scan(ctx context.Context, match string) ([]string, error) {
	var out []string
	iter := s.rdb.Scan(ctx, 0, match, 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	return out, iter.Err()
}

// DeleteMatching removes every key matching a redis glob, returning the count
// actually deleted.
func (s *Store) DeleteMatching(ctx context.Context, match string) (int, error) {
	keys, err := s.Scan(ctx, match)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, k := range keys {
		if err := s.rdb.Del(ctx, k).Err(); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// Clear wipes every key in the store's database.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.DeleteMatching(ctx, "*")
	return err
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Store) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

// releaseScript deletes the lock key only when the caller still owns it.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// Lock takes a best-effort distributed mutex via SET NX. It returns ok=false
// without blocking when the lock is held elsewhere. No consensus is implied;
// the ttl bounds how long a crashed holder can wedge other processes.
func (s *Store) Lock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return nil, false, err
	}
	token := hex.EncodeToString(raw)

	ok, err = s.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	release = func(ctx context.Context) error {
		return releaseScript.Run(ctx, s.rdb, []string{key}, token).Err()
	}
	return release, true, nil
}
