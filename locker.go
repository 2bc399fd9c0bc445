package regioncache

import (
	"context"
	"sync"
	"time"

	redisstore "github.com/unkn0wn-root/regioncache/store/redis"
)

const remoteLockTTL = 30 * time.Second

// locker serializes computation of one key during decorated calls. This is
// herd mitigation, not single-flight: at-least-once computation is
// acceptable, so a failed acquire degrades to computing anyway.
type locker interface {
	acquire(ctx context.Context, key string) (release func(), ok bool)
}

// keyLocker is the local-process locker: one mutex per active key.
type keyLocker struct {
	mu   sync.Mutex
	keys map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocker() *keyLocker {
	return &keyLocker{keys: make(map[string]*keyLock)}
}

func (l *keyLocker) acquire(_ context.Context, key string) (func(), bool) {
	l.mu.Lock()
	kl, ok := l.keys[key]
	if !ok {
		kl = &keyLock{}
		l.keys[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.keys, key)
		}
		l.mu.Unlock()
	}, true
}

// redisLocker delegates mutual exclusion to the remote store (SET NX with a
// short TTL). On any failure it proceeds unlocked.
type redisLocker struct {
	store *redisstore.Store
	ttl   time.Duration
}

func (l *redisLocker) acquire(ctx context.Context, key string) (func(), bool) {
	release, ok, err := l.store.Lock(ctx, "lock:"+key, l.ttl)
	if err != nil || !ok {
		return func() {}, false
	}
	return func() { _ = release(context.Background()) }, true
}
