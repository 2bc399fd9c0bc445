package regioncache

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// CacheOpaque marks argument types that must never participate in key
// generation (connections, sessions, engines). Implementing the interface is
// the explicit opt-out; the type-name markers below are the heuristic
// fallback for third-party types that cannot be changed.
type CacheOpaque interface {
	CacheOpaque()
}

// DefaultOpaqueTypeMarkers are substrings matched against an argument's
// reflect type string when the value does not implement CacheOpaque.
var DefaultOpaqueTypeMarkers = []string{"Conn", "Engine", "sql.", "pgx.", "sqlite"}

// Param describes one declared parameter of a cached function.
type Param struct {
	Name       string
	Default    any
	HasDefault bool
}

// FuncSpec is the caller-declared signature descriptor used for key
// generation. It replaces runtime reflection over arbitrary callables: the
// caller states the parameter names once, at decoration time.
type FuncSpec struct {
	Name     string
	Params   []Param
	Variadic bool
}

// CallArgs carries the arguments of one invocation. Positional arguments bind
// to Params in order; keyword arguments bind by name and win over positional.
type CallArgs struct {
	Pos []any
	KW  map[string]any
}

// KeyFunc renders the cache key for one invocation.
type KeyFunc func(args CallArgs) string

type keygenConfig struct {
	exclude map[string]struct{}
	markers []string
}

type KeyOption func(*keygenConfig)

// ExcludeParams removes the named parameters from key generation, so calls
// differing only in those values share an entry.
func ExcludeParams(names ...string) KeyOption {
	return func(c *keygenConfig) {
		if c.exclude == nil {
			c.exclude = make(map[string]struct{}, len(names))
		}
		for _, n := range names {
			c.exclude[n] = struct{}{}
		}
	}
}

// OpaqueTypeMarkers replaces the default type-name denylist.
func OpaqueTypeMarkers(markers ...string) KeyOption {
	return func(c *keygenConfig) { c.markers = markers }
}

// KeyGenerator returns a KeyFunc bound to one function descriptor. The output
// is a pure function of the effective bound arguments: call style (positional
// vs keyword) and unspecified defaults never change it. Two distinct values
// with identical fmt renderings collide; that is a documented trade-off, not
// a defect.
//
// Key shape: "<fn>|<normalized ns>|<sorted name=value pairs>", with the
// namespace segment omitted entirely when the namespace is empty.
func KeyGenerator(namespace string, spec FuncSpec, opts ...KeyOption) KeyFunc {
	cfg := keygenConfig{markers: DefaultOpaqueTypeMarkers}
	for _, o := range opts {
		o(&cfg)
	}

	prefix := spec.Name
	if namespace != "" {
		prefix = spec.Name + "|" + NormalizeNamespace(namespace)
	}

	return func(args CallArgs) string {
		bound := make(map[string]any, len(spec.Params)+len(args.KW))
		for _, p := range spec.Params {
			if p.HasDefault {
				bound[p.Name] = p.Default
			}
		}
		for i, v := range args.Pos {
			if i < len(spec.Params) {
				bound[spec.Params[i].Name] = v
			} else {
				bound[fmt.Sprintf("vararg%d", i-len(spec.Params)+1)] = v
			}
		}
		for k, v := range args.KW {
			bound[k] = v
		}

		names := make([]string, 0, len(bound))
		for name, v := range bound {
			if name == "self" || name == "cls" || strings.HasPrefix(name, "_") {
				continue
			}
			if _, drop := cfg.exclude[name]; drop {
				continue
			}
			if isConnectionLike(v, cfg.markers) {
				continue
			}
			names = append(names, name)
		}
		sort.Strings(names)

		pairs := make([]string, len(names))
		for i, name := range names {
			pairs[i] = fmt.Sprintf("%s=%v", name, bound[name])
		}
		return prefix + "|" + strings.Join(pairs, " ")
	}
}

// isConnectionLike detects driver/engine-style arguments structurally (a
// Driver, Dialect or Engine method) or nominally (the type name contains a
// marker), without importing any database library.
func isConnectionLike(v any, markers []string) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(CacheOpaque); ok {
		return true
	}
	rv := reflect.ValueOf(v)
	for _, m := range [...]string{"Driver", "Dialect", "Engine"} {
		if rv.MethodByName(m).IsValid() {
			return true
		}
	}
	tn := reflect.TypeOf(v).String()
	for _, m := range markers {
		if strings.Contains(tn, m) {
			return true
		}
	}
	return false
}
