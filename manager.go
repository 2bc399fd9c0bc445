package regioncache

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/unkn0wn-root/regioncache/store"
	filestore "github.com/unkn0wn-root/regioncache/store/file"
	memstore "github.com/unkn0wn-root/regioncache/store/memory"
	redisstore "github.com/unkn0wn-root/regioncache/store/redis"
)

// Kind identifies a backend family.
type Kind int

const (
	KindMemory Kind = iota
	KindFile
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindMemory:
		return "memory"
	case KindFile:
		return "file"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// remoteClearTimeout bounds remote invalidation when the caller context
// carries no deadline of its own.
const remoteClearTimeout = 60 * time.Second

type regionKey struct {
	ns  string
	ttl int
}

// manager owns the region table for one backend kind. Lookups and builds are
// serialized so exactly one handle exists per (namespace, ttl).
type manager struct {
	kind Kind
	c    *Caches

	mu      sync.Mutex
	regions map[regionKey]*Region

	missingLog func(msg string, f Fields)
}

func newManager(kind Kind, c *Caches) *manager {
	m := &manager{kind: kind, c: c, regions: make(map[regionKey]*Region)}
	// missing-region conditions log at warn for local backends, info for remote
	if kind == KindRemote {
		m.missingLog = func(msg string, f Fields) { c.log.Info(msg, f) }
	} else {
		m.missingLog = func(msg string, f Fields) { c.log.Warn(msg, f) }
	}
	return m
}

// fileTier derives the on-disk store filename base from a ttl in seconds.
func fileTier(ttlSeconds int) string {
	switch {
	case ttlSeconds < 60:
		return fmt.Sprintf("cache%dsec", ttlSeconds)
	case ttlSeconds < 3600:
		return fmt.Sprintf("cache%dmin", ttlSeconds/60)
	default:
		return fmt.Sprintf("cache%dhour", ttlSeconds/3600)
	}
}

// remoteTier derives the short remote region name from a ttl in seconds.
func remoteTier(ttlSeconds int) string {
	switch {
	case ttlSeconds < 60:
		return fmt.Sprintf("%ds", ttlSeconds)
	case ttlSeconds < 3600:
		return fmt.Sprintf("%dm", ttlSeconds/60)
	case ttlSeconds < 86400:
		return fmt.Sprintf("%dh", ttlSeconds/3600)
	default:
		return fmt.Sprintf("%dd", ttlSeconds/86400)
	}
}

// region returns the memoized handle for (namespace, ttl), building it on
// first access. The table lock is held across the build so concurrent
// callers observe one winning instance.
func (m *manager) region(ns string, ttlSeconds int) (*Region, error) {
	if ttlSeconds <= 0 {
		return nil, &ConfigError{Option: "ttl", Value: ttlSeconds, Reason: "must be positive"}
	}
	rk := regionKey{ns: ns, ttl: ttlSeconds}

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.regions[rk]; ok {
		return r, nil
	}

	cfg := m.c.registry.snapshot(ns)
	r, err := m.build(ns, ttlSeconds, &cfg)
	if err != nil {
		return nil, err
	}
	m.regions[rk] = r
	// a fallback entry borrows another kind's region; that build already
	// announced itself
	if r.kind == m.kind {
		m.c.hooks.RegionBuilt(m.kind, ns, ttlSeconds)
	}
	return r, nil
}

func (m *manager) build(ns string, ttlSeconds int, cfg *CacheConfig) (*Region, error) {
	switch m.kind {
	case KindFile:
		return m.buildFile(ns, ttlSeconds, cfg)
	case KindRemote:
		return m.buildRemote(ns, ttlSeconds, cfg)
	default:
		return m.buildMemory(ns, ttlSeconds, cfg)
	}
}

func (m *manager) newRegion(ns string, ttlSeconds int, cfg *CacheConfig, name string, st store.Store, inv invalidator, lock locker) *Region {
	if inv == nil {
		inv = &watermark{}
	}
	if lock == nil {
		lock = newKeyLocker()
	}
	return &Region{
		kind:       m.kind,
		ns:         ns,
		ttlSeconds: ttlSeconds,
		name:       name,
		debugKey:   cfg.DebugKey,
		st:         st,
		cod:        m.c.codec,
		inv:        inv,
		lock:       lock,
		log:        m.c.log,
		hooks:      m.c.hooks,
		markers:    m.c.markers,
		disabled:   m.c.isDisabled,
	}
}

func (m *manager) buildMemory(ns string, ttlSeconds int, cfg *CacheConfig) (*Region, error) {
	var st store.Store
	if cfg.Memory == BackendNull {
		st = store.Null{}
	} else {
		ms, err := memstore.New(memstore.Config{TTL: time.Duration(ttlSeconds) * time.Second})
		if err != nil {
			return nil, err
		}
		st = ms
	}
	return m.newRegion(ns, ttlSeconds, cfg, "", st, nil, nil), nil
}

func (m *manager) buildFile(ns string, ttlSeconds int, cfg *CacheConfig) (*Region, error) {
	name := fileTier(ttlSeconds)
	if ns != "" {
		// namespaces sharing one tmp dir must not collide on filenames
		name = ns + "_" + name
	}
	var st store.Store
	if cfg.File == BackendNull {
		st = store.Null{}
	} else {
		st = filestore.New(filepath.Join(cfg.TmpDir, name), nil)
	}
	return m.newRegion(ns, ttlSeconds, cfg, name, st, nil, nil), nil
}

func (m *manager) buildRemote(ns string, ttlSeconds int, cfg *CacheConfig) (*Region, error) {
	if cfg.Redis == BackendNull {
		// a remote region over a no-op backend would silently cache nothing;
		// degrade to the in-process backend for the same (namespace, ttl)
		m.c.log.Warn("remote backend disabled; falling back to memory region",
			Fields{"namespace": ns, "ttl": ttlSeconds})
		m.c.hooks.RemoteFallback(ns, ttlSeconds)
		return m.c.memory.region(ns, ttlSeconds)
	}

	name := remoteTier(ttlSeconds)
	st := redisstore.Dial(cfg.RedisHost, cfg.RedisPort, cfg.RedisDB, cfg.RedisTLS)
	inv := NewRedisInvalidator(st, name+":"+cfg.DebugKey, m.c.remoteHardDelete, m.c.log)

	var lock locker
	if cfg.RedisDistributed {
		lock = &redisLocker{store: st, ttl: remoteLockTTL}
	}
	return m.newRegion(ns, ttlSeconds, cfg, name, st, inv, lock), nil
}

// scopeTTLs lists the ttls of every region in this table belonging to a
// namespace, sorted.
func (m *manager) scopeTTLs(scopeNS string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for rk := range m.regions {
		if rk.ns == scopeNS {
			out = append(out, rk.ttl)
		}
	}
	sort.Ints(out)
	return out
}

func (m *manager) lookup(scopeNS string, ttlSeconds int) (*Region, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regions[regionKey{ns: scopeNS, ttl: ttlSeconds}]
	return r, ok
}

// clear implements the per-kind clearing contract. scopeNS selects which
// regions in the table are in scope; keyNS (optional) narrows deletion to
// keys in that namespace; ttlSeconds <= 0 fans out over every region in
// scope. Clearing is idempotent and a missing region is not an error.
func (m *manager) clear(ctx context.Context, scopeNS string, ttlSeconds int, keyNS string) error {
	if m.kind == KindRemote {
		return m.clearRemote(ctx, scopeNS, ttlSeconds, keyNS)
	}

	if ttlSeconds <= 0 {
		ttls := m.scopeTTLs(scopeNS)
		if len(ttls) == 0 {
			m.missingLog("no "+m.kind.String()+" cache regions exist", Fields{"namespace": scopeNS})
			return nil
		}
		for _, t := range ttls {
			if err := m.clear(ctx, scopeNS, t, keyNS); err != nil {
				return err
			}
		}
		return nil
	}

	r, ok := m.lookup(scopeNS, ttlSeconds)
	if !ok {
		m.missingLog("no "+m.kind.String()+" cache region exists",
			Fields{"namespace": scopeNS, "ttl": ttlSeconds})
		return nil
	}

	if keyNS == "" {
		if err := r.st.Clear(ctx); err != nil {
			return &StoreError{Kind: m.kind, Op: "clear", Err: err}
		}
		m.c.log.Debug("cleared all keys in region",
			Fields{"kind": m.kind.String(), "namespace": scopeNS, "ttl": ttlSeconds})
		return nil
	}

	// namespace-scoped: enumerate and delete only matching keys. The filter
	// uses the currently configured debug prefix.
	debug := m.c.registry.snapshot(scopeNS).DebugKey
	matches := namespaceFilter(debug, keyNS)
	keys, err := r.st.Keys(ctx, "")
	if err != nil {
		return &StoreError{Kind: m.kind, Op: "keys", Err: err}
	}
	deleted := 0
	for _, k := range keys {
		if !matches(k) {
			continue
		}
		if err := r.st.Del(ctx, k); err != nil {
			return &StoreError{Kind: m.kind, Op: "delete", Key: k, Err: err}
		}
		deleted++
	}
	m.c.hooks.KeysCleared(m.kind, r.name, deleted)
	m.c.log.Debug("cleared namespace keys",
		Fields{"kind": m.kind.String(), "namespace": keyNS, "count": deleted})
	return nil
}

// remoteKeyStore is the slice of the remote store the clearing path needs.
// Satisfied by *redisstore.Store; narrow so tests can stand in a fake.
type remoteKeyStore interface {
	Scan(ctx context.Context, match string) ([]string, error)
	Del(ctx context.Context, key string) error
	DeleteMatching(ctx context.Context, match string) (int, error)
	Close(ctx context.Context) error
}

// remoteClearGlob derives the key glob and region label for a remote clear:
// "<region>:<debugKey>*" for one ttl, "*:<debugKey>*" across all regions.
func remoteClearGlob(ttlSeconds int, debugKey string) (glob, label string) {
	if ttlSeconds > 0 {
		label = remoteTier(ttlSeconds)
		return label + ":" + debugKey + "*", label
	}
	return "*:" + debugKey + "*", "*"
}

// clearRemoteKeys deletes every scanned key belonging to keyNS. Remote keys
// carry a "<region>:" prefix the local mangling does not, so it is stripped
// before the namespace filter runs.
func clearRemoteKeys(ctx context.Context, st remoteKeyStore, glob, debugKey, keyNS string) (int, error) {
	keys, err := st.Scan(ctx, glob)
	if err != nil {
		return 0, &StoreError{Kind: KindRemote, Op: "scan", Err: err}
	}

	matches := namespaceFilter(debugKey, keyNS)
	deleted := 0
	for _, k := range keys {
		rest := k
		if i := strings.Index(k, ":"); i >= 0 {
			rest = k[i+1:]
		}
		if !matches(rest) {
			continue
		}
		if err := st.Del(ctx, k); err != nil {
			return deleted, &StoreError{Kind: KindRemote, Op: "delete", Key: k, Err: err}
		}
		deleted++
	}
	return deleted, nil
}

// clearRemote never requires a live region handle: it derives the key glob
// from the ttl and the configured connection parameters, so cross-process
// clearing works from config alone. The one hard-error case is both scope
// hints missing.
func (m *manager) clearRemote(ctx context.Context, scopeNS string, ttlSeconds int, keyNS string) error {
	if ttlSeconds <= 0 && keyNS == "" {
		return ErrAmbiguousScope
	}

	cfg := m.c.registry.snapshot(scopeNS)
	if cfg.Redis == BackendNull {
		// regions for this scope were built on the memory fallback
		return m.c.memory.clear(ctx, scopeNS, ttlSeconds, keyNS)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, remoteClearTimeout)
		defer cancel()
	}

	if keyNS == "" {
		// full flush of one region
		if r, ok := m.lookup(scopeNS, ttlSeconds); ok && r.kind == KindRemote {
			if err := r.inv.Invalidate(ctx, true); err != nil {
				return err
			}
			m.c.log.Debug("invalidated redis cache region", Fields{"region": r.name})
			return nil
		}
		m.missingLog("no redis cache region exists; clearing by connection parameters",
			Fields{"namespace": scopeNS, "ttl": ttlSeconds})
		st := m.c.dialRemote(cfg.RedisHost, cfg.RedisPort, cfg.RedisDB, cfg.RedisTLS)
		defer st.Close(ctx)
		glob, label := remoteClearGlob(ttlSeconds, cfg.DebugKey)
		deleted, err := st.DeleteMatching(ctx, glob)
		if err != nil {
			return &StoreError{Kind: KindRemote, Op: "clear", Err: err}
		}
		m.c.hooks.KeysCleared(KindRemote, label, deleted)
		return nil
	}

	st, closeStore := m.remoteStore(ctx, scopeNS, ttlSeconds, &cfg)
	if closeStore != nil {
		defer closeStore()
	}

	glob, label := remoteClearGlob(ttlSeconds, cfg.DebugKey)
	deleted, err := clearRemoteKeys(ctx, st, glob, cfg.DebugKey, keyNS)
	if err != nil {
		return err
	}
	m.c.hooks.KeysCleared(KindRemote, label, deleted)
	m.c.log.Debug("cleared redis namespace keys", Fields{"namespace": keyNS, "count": deleted})
	return nil
}

// remoteStore reuses the live region's store when one exists, otherwise dials
// a transient client from config.
func (m *manager) remoteStore(ctx context.Context, scopeNS string, ttlSeconds int, cfg *CacheConfig) (remoteKeyStore, func()) {
	if ttlSeconds > 0 {
		if r, ok := m.lookup(scopeNS, ttlSeconds); ok && r.kind == KindRemote {
			if st, ok := r.st.(remoteKeyStore); ok {
				return st, nil
			}
		}
	}
	st := m.c.dialRemote(cfg.RedisHost, cfg.RedisPort, cfg.RedisDB, cfg.RedisTLS)
	return st, func() { _ = st.Close(ctx) }
}

// dropAll empties the region table, closing owned stores best-effort.
// Fallback entries (memory regions memoized in the remote table) are owned by
// the memory manager and are skipped here.
func (m *manager) dropAll(ctx context.Context) {
	m.mu.Lock()
	regions := m.regions
	m.regions = make(map[regionKey]*Region)
	m.mu.Unlock()
	for _, r := range regions {
		if r.kind != m.kind {
			continue
		}
		_ = r.st.Close(ctx)
	}
}
