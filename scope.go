package regioncache

import "context"

// Scope binds cache operations to one configuration namespace. Scopes are
// cheap value-like handles; hold as many as you like.
type Scope struct {
	c  *Caches
	ns string
}

// ConfigNamespace returns the namespace this scope reads configuration from.
func (s *Scope) ConfigNamespace() string { return s.ns }

// Configure applies options to this scope's configuration namespace.
func (s *Scope) Configure(opts ...ConfigOption) (*CacheConfig, error) {
	return s.c.registry.Configure(s.ns, opts...)
}

// Config reads the effective configuration without creating an entry.
func (s *Scope) Config() *CacheConfig {
	return s.c.registry.Config(s.ns)
}

// MemoryRegion returns the in-process region for this scope and ttl, building
// it on first use.
func (s *Scope) MemoryRegion(ttlSeconds int) (*Region, error) {
	return s.c.memory.region(s.ns, ttlSeconds)
}

// FileRegion returns the on-disk region for this scope and ttl.
func (s *Scope) FileRegion(ttlSeconds int) (*Region, error) {
	return s.c.file.region(s.ns, ttlSeconds)
}

// RemoteRegion returns the remote region for this scope and ttl. When the
// remote backend is configured null the returned region is the in-process
// one for the same scope and ttl.
func (s *Scope) RemoteRegion(ttlSeconds int) (*Region, error) {
	return s.c.remote.region(s.ns, ttlSeconds)
}

// ClearMemory removes cached entries from in-process regions. ttlSeconds <= 0
// fans out over every built region in this scope; namespace, when non-empty,
// restricts deletion to keys generated under that key namespace.
func (s *Scope) ClearMemory(ctx context.Context, ttlSeconds int, namespace string) error {
	return s.c.memory.clear(ctx, s.ns, ttlSeconds, NormalizeNamespace(namespace))
}

// ClearFile removes cached entries from on-disk regions with the same scoping
// rules as ClearMemory.
func (s *Scope) ClearFile(ctx context.Context, ttlSeconds int, namespace string) error {
	return s.c.file.clear(ctx, s.ns, ttlSeconds, NormalizeNamespace(namespace))
}

// ClearRemote removes cached entries from the remote store. It works from
// configuration alone, so it clears keys written by other processes too. At
// least one of ttlSeconds > 0 or a non-empty namespace is required; otherwise
// ErrAmbiguousScope.
func (s *Scope) ClearRemote(ctx context.Context, ttlSeconds int, namespace string) error {
	return s.c.remote.clear(ctx, s.ns, ttlSeconds, NormalizeNamespace(namespace))
}

// SetMemoryKey stores a value in the in-process region under the key a
// decorated call with these arguments would use.
func (s *Scope) SetMemoryKey(ctx context.Context, ttlSeconds int, namespace string, spec FuncSpec, args CallArgs, value any) error {
	r, err := s.MemoryRegion(ttlSeconds)
	if err != nil {
		return err
	}
	return r.Set(ctx, r.Key(namespace, spec, args), value)
}

// SetFileKey is SetMemoryKey against the on-disk region.
func (s *Scope) SetFileKey(ctx context.Context, ttlSeconds int, namespace string, spec FuncSpec, args CallArgs, value any) error {
	r, err := s.FileRegion(ttlSeconds)
	if err != nil {
		return err
	}
	return r.Set(ctx, r.Key(namespace, spec, args), value)
}

// SetRemoteKey is SetMemoryKey against the remote region.
func (s *Scope) SetRemoteKey(ctx context.Context, ttlSeconds int, namespace string, spec FuncSpec, args CallArgs, value any) error {
	r, err := s.RemoteRegion(ttlSeconds)
	if err != nil {
		return err
	}
	return r.Set(ctx, r.Key(namespace, spec, args), value)
}

// DeleteMemoryKey removes one generated key from the in-process region.
func (s *Scope) DeleteMemoryKey(ctx context.Context, ttlSeconds int, namespace string, spec FuncSpec, args CallArgs) error {
	r, err := s.MemoryRegion(ttlSeconds)
	if err != nil {
		return err
	}
	return r.Delete(ctx, r.Key(namespace, spec, args))
}

// DeleteFileKey removes one generated key from the on-disk region.
func (s *Scope) DeleteFileKey(ctx context.Context, ttlSeconds int, namespace string, spec FuncSpec, args CallArgs) error {
	r, err := s.FileRegion(ttlSeconds)
	if err != nil {
		return err
	}
	return r.Delete(ctx, r.Key(namespace, spec, args))
}

// DeleteRemoteKey removes one generated key from the remote region.
func (s *Scope) DeleteRemoteKey(ctx context.Context, ttlSeconds int, namespace string, spec FuncSpec, args CallArgs) error {
	r, err := s.RemoteRegion(ttlSeconds)
	if err != nil {
		return err
	}
	return r.Delete(ctx, r.Key(namespace, spec, args))
}
