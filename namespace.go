package regioncache

import "strings"

// NormalizeNamespace wraps a namespace in pipe delimiters. Empty input stays
// empty; embedded pipes are replaced with periods so the wrapped form stays
// unambiguous inside generated keys.
func NormalizeNamespace(ns string) string {
	if ns == "" {
		return ""
	}
	ns = strings.Trim(ns, "|")
	ns = strings.ReplaceAll(ns, "|", ".")
	return "|" + ns + "|"
}

// namespaceFilter reports whether a mangled key belongs to a namespace: the
// key must start with the debug prefix and contain the wrapped namespace
// pattern somewhere after it. This is deliberately a coarse substring match;
// a rendered argument value that happens to contain another namespace's
// wrapped pattern will false-positive. The pipe-delimited key layout keeps
// that rare, and fixing it would change observable clearing behavior.
func namespaceFilter(debugPrefix, ns string) func(string) bool {
	pattern := "|" + NormalizeNamespace(ns) + "|"
	return func(key string) bool {
		if !strings.HasPrefix(key, debugPrefix) {
			return false
		}
		return strings.Contains(key[len(debugPrefix):], pattern)
	}
}
