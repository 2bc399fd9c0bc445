package regioncache

import (
	"context"
	"reflect"
	"time"

	"github.com/unkn0wn-root/regioncache/codec"
	"github.com/unkn0wn-root/regioncache/internal/wire"
	"github.com/unkn0wn-root/regioncache/store"
)

// CachedFunc is the computation shape regions memoize: explicit arguments in,
// dynamically typed result out.
type CachedFunc func(ctx context.Context, args CallArgs) (any, error)

// Region is a backend-bound cache handle for one (namespace, ttl) pair.
// A handle is built at most once per identifying tuple and stays valid until
// ClearAllRegions drops it.
type Region struct {
	kind       Kind
	ns         string
	ttlSeconds int
	name       string
	debugKey   string // baked at build time; later Configure calls never alter it
	st         store.Store
	cod        codec.Codec
	inv        invalidator
	lock       locker
	log        Logger
	hooks      Hooks
	markers    []string
	disabled   func() bool
}

func (r *Region) Kind() Kind        { return r.kind }
func (r *Region) Namespace() string { return r.ns }
func (r *Region) TTL() int          { return r.ttlSeconds }

// Name is the backend-specific region label: the tier name for remote
// regions ("5m", "2h"), the filename base for file regions, empty for memory.
func (r *Region) Name() string { return r.name }

// DebugKey returns the key prefix captured when the region was built.
func (r *Region) DebugKey() string { return r.debugKey }

func (r *Region) ttl() time.Duration { return time.Duration(r.ttlSeconds) * time.Second }

// mangle prepends the baked key prefix. Remote keys also carry the region
// name so they are self-describing across processes.
func (r *Region) mangle(key string) string {
	if r.kind == KindRemote {
		return r.name + ":" + r.debugKey + key
	}
	return r.debugKey + key
}

// Get returns the cached value for a generated key. Expired, invalidated and
// corrupt entries read as misses and are deleted best-effort.
func (r *Region) Get(ctx context.Context, key string) (any, bool, error) {
	if r.disabled() {
		return nil, false, nil
	}
	k := r.mangle(key)
	raw, ok, err := r.st.Get(ctx, k)
	if err != nil {
		r.hooks.StoreFailure(r.kind, "get", err)
		return nil, false, &StoreError{Kind: r.kind, Op: "get", Key: key, Err: err}
	}
	if !ok {
		return nil, false, nil
	}
	created, payload, err := wire.DecodeEntry(raw)
	if err != nil {
		_ = r.st.Del(ctx, k) // self-heal corrupt
		return nil, false, nil
	}
	if r.expired(created) || r.inv.Invalidated(created) {
		_ = r.st.Del(ctx, k)
		return nil, false, nil
	}
	v, err := r.cod.Decode(payload)
	if err != nil {
		_ = r.st.Del(ctx, k) // self-heal
		return nil, false, nil
	}
	return v, true, nil
}

func (r *Region) expired(created time.Time) bool {
	return r.ttlSeconds > 0 && time.Since(created) >= r.ttl()
}

// Set stores a value under a generated key.
func (r *Region) Set(ctx context.Context, key string, v any) error {
	if r.disabled() {
		return nil
	}
	payload, err := r.cod.Encode(v)
	if err != nil {
		return err
	}
	raw := wire.EncodeEntry(time.Now(), payload)
	if err := r.st.Set(ctx, r.mangle(key), raw, r.ttl()); err != nil {
		r.hooks.StoreFailure(r.kind, "set", err)
		return &StoreError{Kind: r.kind, Op: "set", Key: key, Err: err}
	}
	return nil
}

// Delete removes a generated key. Missing keys are not an error.
func (r *Region) Delete(ctx context.Context, key string) error {
	if err := r.st.Del(ctx, r.mangle(key)); err != nil {
		r.hooks.StoreFailure(r.kind, "delete", err)
		return &StoreError{Kind: r.kind, Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Key renders the cache key Decorate would use, for the direct Set/Delete
// paths.
func (r *Region) Key(namespace string, spec FuncSpec, args CallArgs) string {
	return KeyGenerator(namespace, spec, OpaqueTypeMarkers(r.markers...))(args)
}

type decorateConfig struct {
	namespace   string
	shouldCache func(any) bool
	exclude     []string
}

type DecorateOption func(*decorateConfig)

// WithNamespace sets the key namespace for a decorated function. Defaults to
// none: keys then carry only the function name and arguments.
func WithNamespace(ns string) DecorateOption {
	return func(c *decorateConfig) { c.namespace = ns }
}

// WithShouldCache replaces the storage predicate. The default, ShouldCache,
// skips falsy results.
func WithShouldCache(fn func(any) bool) DecorateOption {
	return func(c *decorateConfig) { c.shouldCache = fn }
}

// WithExcludeParams drops the named parameters from key generation.
func WithExcludeParams(names ...string) DecorateOption {
	return func(c *decorateConfig) { c.exclude = append(c.exclude, names...) }
}

// Decorate wraps a computation so results are memoized under the
// KeyGenerator-derived key. Concurrent callers on the same key serialize
// through the region locker, but computation stays at-least-once by
// contract: when the lock cannot be taken the caller computes anyway.
// Store failures surface as StoreError rather than being swallowed.
func (r *Region) Decorate(spec FuncSpec, fn CachedFunc, opts ...DecorateOption) CachedFunc {
	cfg := decorateConfig{shouldCache: ShouldCache}
	for _, o := range opts {
		o(&cfg)
	}
	kopts := []KeyOption{OpaqueTypeMarkers(r.markers...)}
	if len(cfg.exclude) > 0 {
		kopts = append(kopts, ExcludeParams(cfg.exclude...))
	}
	keyFn := KeyGenerator(cfg.namespace, spec, kopts...)

	return func(ctx context.Context, args CallArgs) (any, error) {
		if r.disabled() {
			return fn(ctx, args)
		}
		key := keyFn(args)
		if v, ok, err := r.Get(ctx, key); err != nil {
			return nil, err
		} else if ok {
			return v, nil
		}

		release, _ := r.lock.acquire(ctx, r.mangle(key))
		defer release()

		// re-check under the lock; another caller may have stored meanwhile
		if v, ok, err := r.Get(ctx, key); err != nil {
			return nil, err
		} else if ok {
			return v, nil
		}

		v, err := fn(ctx, args)
		if err != nil {
			return nil, err
		}
		if cfg.shouldCache(v) {
			if err := r.Set(ctx, key, v); err != nil {
				return nil, err
			}
		}
		return v, nil
	}
}

// ShouldCache is the default storage predicate: cache anything truthy.
// Nil, zero scalars and empty strings/slices/maps are skipped.
func ShouldCache(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String, reflect.Chan:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return !rv.IsZero()
}
