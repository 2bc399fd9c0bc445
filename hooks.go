package regioncache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The managers call them on hot paths.
type Hooks interface {
	// A region was built for the first time.
	RegionBuilt(kind Kind, namespace string, ttlSeconds int)

	// A remote region request fell back to the in-process backend because the
	// remote backend is configured as null. Fired once per (namespace, ttl).
	RemoteFallback(namespace string, ttlSeconds int)

	// A scoped clear removed count keys from a region.
	KeysCleared(kind Kind, region string, count int)

	// A backing store operation failed.
	StoreFailure(kind Kind, op string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) RegionBuilt(Kind, string, int)    {}
func (NopHooks) RemoteFallback(string, int)       {}
func (NopHooks) KeysCleared(Kind, string, int)    {}
func (NopHooks) StoreFailure(Kind, string, error) {}
