package regioncache

import (
	"context"
	"sync/atomic"

	"github.com/unkn0wn-root/regioncache/codec"
	redisstore "github.com/unkn0wn-root/regioncache/store/redis"
)

// Options configures a Caches instance. The zero value works: a fresh
// registry, no-op logging and hooks, msgpack payloads.
type Options struct {
	// Registry supplies per-namespace configuration. Nil builds a fresh one,
	// reachable afterwards via Caches.Registry.
	Registry *Registry

	// Logger receives diagnostic output. Nil disables logging; adapters for
	// zap, slog and logrus live under log/.
	Logger Logger

	// Hooks receives lifecycle callbacks. Nil disables them.
	Hooks Hooks

	// Codec encodes cached values. Nil selects codec.Msgpack.
	Codec codec.Codec

	// RemoteHardDelete makes remote region invalidation physically scan and
	// delete keys in addition to advancing the logical watermark.
	RemoteHardDelete bool

	// OpaqueTypeMarkers extends the type-name substrings key generation treats
	// as connection-like and drops from keys. Defaults apply when nil.
	OpaqueTypeMarkers []string

	// Disabled starts the instance in pass-through mode.
	Disabled bool
}

// Caches is the root handle: it owns one region table per backend kind and
// hands out namespace-bound scopes. Safe for concurrent use.
type Caches struct {
	registry         *Registry
	log              Logger
	hooks            Hooks
	codec            codec.Codec
	markers          []string
	remoteHardDelete bool

	memory *manager
	file   *manager
	remote *manager

	// connection-parameter clearing dials through here; tests substitute it
	dialRemote func(host string, port, db int, useTLS bool) remoteKeyStore

	disabled atomic.Bool
}

func New(opts Options) *Caches {
	c := &Caches{
		registry:         opts.Registry,
		log:              coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:            coalesce[Hooks](opts.Hooks, NopHooks{}),
		codec:            opts.Codec,
		markers:          opts.OpaqueTypeMarkers,
		remoteHardDelete: opts.RemoteHardDelete,
	}
	if c.registry == nil {
		c.registry = NewRegistry()
	}
	if c.codec == nil {
		c.codec = codec.Msgpack{}
	}
	if c.markers == nil {
		c.markers = DefaultOpaqueTypeMarkers
	}
	c.dialRemote = func(host string, port, db int, useTLS bool) remoteKeyStore {
		return redisstore.Dial(host, port, db, useTLS)
	}
	c.memory = newManager(KindMemory, c)
	c.file = newManager(KindFile, c)
	c.remote = newManager(KindRemote, c)
	c.disabled.Store(opts.Disabled)
	return c
}

// Registry exposes the configuration registry backing this instance.
func (c *Caches) Registry() *Registry { return c.registry }

// Namespace returns a scope whose regions and clears belong to the named
// configuration namespace.
func (c *Caches) Namespace(ns string) *Scope {
	return &Scope{c: c, ns: ns}
}

// Ambient returns the scope bound to the default configuration.
func (c *Caches) Ambient() *Scope { return c.Namespace("") }

// Disable switches every region into pass-through mode: reads miss, writes
// drop, decorated functions always recompute. Region handles stay valid.
func (c *Caches) Disable() { c.disabled.Store(true) }

// Enable reverses Disable.
func (c *Caches) Enable() { c.disabled.Store(false) }

// Disabled reports pass-through mode.
func (c *Caches) Disabled() bool { return c.disabled.Load() }

func (c *Caches) isDisabled() bool { return c.disabled.Load() }

// ClearAllRegions drops every memoized region handle across all backend
// kinds, closing their stores. Subsequent region requests rebuild from the
// current configuration; this is how config changes reach the debug key and
// remote connection of already-built regions.
func (c *Caches) ClearAllRegions(ctx context.Context) {
	c.remote.dropAll(ctx)
	c.file.dropAll(ctx)
	c.memory.dropAll(ctx)
}

// Close releases every region's store. The instance is unusable afterwards
// except that region requests would rebuild; callers are expected not to.
func (c *Caches) Close(ctx context.Context) error {
	c.ClearAllRegions(ctx)
	return nil
}
