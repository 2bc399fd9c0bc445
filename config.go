package regioncache

import (
	"os"
	"sort"
	"sync"
)

// Backend selector values accepted by Configure.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	// BackendNull disables the backend it is assigned to. A null memory or
	// file backend builds no-op regions; a null remote backend makes
	// RemoteRegion fall back to the in-process backend.
	BackendNull = "null"
)

// DefaultNamespace keys the process-wide default configuration inside
// Registry.Snapshot results.
const DefaultNamespace = "_default"

// CacheConfig holds per-namespace settings. One CacheConfig exists per
// configured namespace plus the process-wide default; unconfigured namespaces
// read the default. Later Configure calls mutate a namespace's config in
// place, but values baked into already-built regions (the debug key, the
// remote connection) never change retroactively.
type CacheConfig struct {
	DebugKey         string
	Memory           string
	File             string
	Redis            string
	RedisHost        string
	RedisPort        int
	RedisDB          int
	RedisDistributed bool
	RedisTLS         bool
	TmpDir           string
	DefaultBackend   string

	// tracks whether RedisDistributed was set explicitly, so disabling the
	// remote backend can default it off without clobbering a real choice
	redisDistributedSet bool
}

func newDefaultConfig() *CacheConfig {
	return &CacheConfig{
		Memory:         BackendMemory,
		File:           BackendFile,
		Redis:          BackendRedis,
		RedisHost:      "localhost",
		RedisPort:      6379,
		TmpDir:         os.TempDir(),
		DefaultBackend: BackendMemory,
	}
}

// ConfigOption mutates one configuration field, validating the value first.
type ConfigOption func(*CacheConfig) error

// WithDebugKey sets the prefix prepended to every generated key. Used to
// version-bust or sandbox test keys.
func WithDebugKey(prefix string) ConfigOption {
	return func(c *CacheConfig) error {
		c.DebugKey = prefix
		return nil
	}
}

// WithMemoryBackend selects the in-process backend: BackendMemory or
// BackendNull.
func WithMemoryBackend(selector string) ConfigOption {
	return func(c *CacheConfig) error {
		if selector != BackendMemory && selector != BackendNull {
			return &ConfigError{Option: "memoryBackend", Value: selector, Reason: "unknown backend selector"}
		}
		c.Memory = selector
		return nil
	}
}

// WithFileBackend selects the on-disk backend: BackendFile or BackendNull.
func WithFileBackend(selector string) ConfigOption {
	return func(c *CacheConfig) error {
		if selector != BackendFile && selector != BackendNull {
			return &ConfigError{Option: "fileBackend", Value: selector, Reason: "unknown backend selector"}
		}
		c.File = selector
		return nil
	}
}

// WithRemoteBackend selects the remote backend: BackendRedis or BackendNull.
func WithRemoteBackend(selector string) ConfigOption {
	return func(c *CacheConfig) error {
		if selector != BackendRedis && selector != BackendNull {
			return &ConfigError{Option: "remoteBackend", Value: selector, Reason: "unknown backend selector"}
		}
		c.Redis = selector
		// a null backend performs no real IO; locking against it is pointless
		// unless the caller explicitly asked for it
		if selector == BackendNull && !c.redisDistributedSet {
			c.RedisDistributed = false
		}
		return nil
	}
}

// WithRemoteHost sets the remote server hostname.
func WithRemoteHost(host string) ConfigOption {
	return func(c *CacheConfig) error {
		if host == "" {
			return &ConfigError{Option: "remoteHost", Value: host, Reason: "must not be empty"}
		}
		c.RedisHost = host
		return nil
	}
}

// WithRemotePort sets the remote server port.
func WithRemotePort(port int) ConfigOption {
	return func(c *CacheConfig) error {
		if port < 1 || port > 65535 {
			return &ConfigError{Option: "remotePort", Value: port, Reason: "must be in [1, 65535]"}
		}
		c.RedisPort = port
		return nil
	}
}

// WithRemoteDB sets the remote database index.
func WithRemoteDB(db int) ConfigOption {
	return func(c *CacheConfig) error {
		if db < 0 {
			return &ConfigError{Option: "remoteDb", Value: db, Reason: "must be >= 0"}
		}
		c.RedisDB = db
		return nil
	}
}

// WithRemoteDistributedLock delegates decorated-call mutual exclusion to the
// remote store instead of a local per-key mutex.
func WithRemoteDistributedLock(enabled bool) ConfigOption {
	return func(c *CacheConfig) error {
		c.RedisDistributed = enabled
		c.redisDistributedSet = true
		return nil
	}
}

// WithRemoteTLS enables TLS on remote connections.
func WithRemoteTLS(enabled bool) ConfigOption {
	return func(c *CacheConfig) error {
		c.RedisTLS = enabled
		return nil
	}
}

// WithTmpDir sets the root directory for on-disk stores. The directory must
// exist and be writable.
func WithTmpDir(dir string) ConfigOption {
	return func(c *CacheConfig) error {
		fi, err := os.Stat(dir)
		if err != nil || !fi.IsDir() {
			return &ConfigError{Option: "tmpDir", Value: dir, Reason: "not an existing directory"}
		}
		probe, err := os.CreateTemp(dir, ".regioncache-probe-*")
		if err != nil {
			return &ConfigError{Option: "tmpDir", Value: dir, Reason: "not writable"}
		}
		probe.Close()
		os.Remove(probe.Name())
		c.TmpDir = dir
		return nil
	}
}

// WithDefaultBackend routes DefaultRegion and the other default-cache
// operations: one of BackendMemory, BackendFile, BackendRedis.
func WithDefaultBackend(selector string) ConfigOption {
	return func(c *CacheConfig) error {
		switch selector {
		case BackendMemory, BackendFile, BackendRedis:
			c.DefaultBackend = selector
			return nil
		}
		return &ConfigError{Option: "defaultBackend", Value: selector, Reason: "unknown backend selector"}
	}
}

// Registry maps namespaces to their CacheConfig plus a process-wide default.
// It is safe for concurrent use. Construct with NewRegistry and pass by
// reference; there is no package-level ambient instance.
type Registry struct {
	mu   sync.RWMutex
	def  *CacheConfig
	byNS map[string]*CacheConfig
}

func NewRegistry() *Registry {
	return &Registry{def: newDefaultConfig(), byNS: make(map[string]*CacheConfig)}
}

// Configure applies options to the namespace's config, creating it from a
// copy of the current default on first use. The empty namespace configures
// the default itself. Options apply in order; the first invalid option aborts
// with a ConfigError and leaves the remaining options unapplied.
func (r *Registry) Configure(namespace string, opts ...ConfigOption) (*CacheConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg := r.def
	if namespace != "" {
		var ok bool
		cfg, ok = r.byNS[namespace]
		if !ok {
			cp := *r.def
			cfg = &cp
			r.byNS[namespace] = cfg
		}
	}
	for _, o := range opts {
		if err := o(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Config returns the namespace's config when present, else the default. It
// never creates an entry as a side effect of reading.
func (r *Registry) Config(namespace string) *CacheConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cfg, ok := r.byNS[namespace]; ok {
		return cfg
	}
	return r.def
}

// snapshot copies the effective config so region builds and clears read a
// consistent view even while another goroutine reconfigures.
func (r *Registry) snapshot(namespace string) CacheConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cfg, ok := r.byNS[namespace]; ok {
		return *cfg
	}
	return *r.def
}

// Namespaces lists every namespace with a dedicated config, sorted.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byNS))
	for ns := range r.byNS {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Snapshot copies every config keyed by namespace, with the default under
// DefaultNamespace.
func (r *Registry) Snapshot() map[string]CacheConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]CacheConfig, len(r.byNS)+1)
	out[DefaultNamespace] = *r.def
	for ns, cfg := range r.byNS {
		out[ns] = *cfg
	}
	return out
}

// Reset drops all namespace-specific configs, retaining only the default.
// Test teardown helper.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byNS = make(map[string]*CacheConfig)
}
