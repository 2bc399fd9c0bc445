package regioncache

import "context"

// defaultManager resolves the backend the scope's DefaultBackend selector
// points at. The selector is re-read on every call, so reconfiguring it
// reroutes subsequent default-cache operations.
func (s *Scope) defaultManager() *manager {
	switch s.c.registry.snapshot(s.ns).DefaultBackend {
	case BackendFile:
		return s.c.file
	case BackendRedis:
		return s.c.remote
	default:
		return s.c.memory
	}
}

// DefaultRegion returns the region for this scope and ttl on whichever
// backend the DefaultBackend selector currently names.
func (s *Scope) DefaultRegion(ttlSeconds int) (*Region, error) {
	return s.defaultManager().region(s.ns, ttlSeconds)
}

// ClearDefault clears on the default backend with the backend's own scoping
// rules, including the remote backend's ErrAmbiguousScope check.
func (s *Scope) ClearDefault(ctx context.Context, ttlSeconds int, namespace string) error {
	return s.defaultManager().clear(ctx, s.ns, ttlSeconds, NormalizeNamespace(namespace))
}

// SetDefaultKey stores a value on the default backend under the generated key.
func (s *Scope) SetDefaultKey(ctx context.Context, ttlSeconds int, namespace string, spec FuncSpec, args CallArgs, value any) error {
	r, err := s.DefaultRegion(ttlSeconds)
	if err != nil {
		return err
	}
	return r.Set(ctx, r.Key(namespace, spec, args), value)
}

// DeleteDefaultKey removes one generated key from the default backend.
func (s *Scope) DeleteDefaultKey(ctx context.Context, ttlSeconds int, namespace string, spec FuncSpec, args CallArgs) error {
	r, err := s.DefaultRegion(ttlSeconds)
	if err != nil {
		return err
	}
	return r.Delete(ctx, r.Key(namespace, spec, args))
}
