package regioncache

import (
	"errors"
	"fmt"
)

// ErrAmbiguousScope is returned by remote clearing when neither a ttl nor a
// namespace is given: there is no region name to derive a key glob from, and
// guessing would risk deleting keys outside the caller's intent.
var ErrAmbiguousScope = errors.New("regioncache: ambiguous clear scope (need ttl and/or namespace)")

// ConfigError reports an invalid configuration value. It is returned
// synchronously from Configure, naming the offending option.
type ConfigError struct {
	Option string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("regioncache: invalid %s=%v: %s", e.Option, e.Value, e.Reason)
}

// StoreError wraps a failure from a backing store collaborator. The core does
// not retry; callers choosing fail-open behavior must catch it explicitly.
type StoreError struct {
	Kind Kind
	Op   string
	Key  string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("regioncache: %s store %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("regioncache: %s store %s %q: %v", e.Kind, e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
