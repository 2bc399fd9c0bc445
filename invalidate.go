package regioncache

import (
	"context"
	"sync"
	"time"

	redisstore "github.com/unkn0wn-root/regioncache/store/redis"
)

// invalidator tracks the logical staleness watermark of one region. Entries
// written at or before the watermark read as misses.
type invalidator interface {
	// Invalidate marks entries written before now as stale. The hard flag is
	// advisory for strategies that distinguish physical cleanup from the
	// purely logical marker.
	Invalidate(ctx context.Context, hard bool) error

	// Invalidated reports whether an entry written at createdAt is stale.
	Invalidated(createdAt time.Time) bool
}

// watermark is the local timestamp strategy shared by every region kind. It
// performs no IO against stored keys.
type watermark struct {
	mu sync.Mutex
	at time.Time
}

func (w *watermark) Invalidate(context.Context, bool) error {
	w.mu.Lock()
	w.at = time.Now()
	w.mu.Unlock()
	return nil
}

func (w *watermark) Invalidated(createdAt time.Time) bool {
	w.mu.Lock()
	at := w.at
	w.mu.Unlock()
	return !at.IsZero() && !createdAt.After(at)
}

// RedisInvalidator extends the timestamp strategy for remote regions: the
// logical watermark always advances without touching stored keys, and when
// deleteKeys is set it additionally scans the region's key prefix and
// physically removes every match. It needs only a store handle and a prefix,
// so it works with no other live region state.
type RedisInvalidator struct {
	watermark
	store      *redisstore.Store
	prefix     string // "<region>:<debugKey>"
	deleteKeys bool
	log        Logger
}

func NewRedisInvalidator(st *redisstore.Store, prefix string, deleteKeys bool, log Logger) *RedisInvalidator {
	return &RedisInvalidator{
		store:      st,
		prefix:     prefix,
		deleteKeys: deleteKeys,
		log:        coalesce[Logger](log, NopLogger{}),
	}
}

func (i *RedisInvalidator) Invalidate(ctx context.Context, hard bool) error {
	_ = i.watermark.Invalidate(ctx, hard)
	if !i.deleteKeys {
		return nil
	}
	n, err := i.store.DeleteMatching(ctx, i.prefix+"*")
	if err != nil {
		return &StoreError{Kind: KindRemote, Op: "invalidate", Err: err}
	}
	i.log.Debug("deleted redis keys for region", Fields{"prefix": i.prefix, "count": n})
	return nil
}
