// Package regioncache manages lazily-built cache regions across three backend
// kinds: in-process (bigcache), on-disk (a lock-guarded keyed file store) and
// remote (Redis). A region is identified by (namespace, ttl, backend kind) and
// is built at most once per process; callers either use direct key operations
// or wrap a computation with Decorate so results are memoized under a
// deterministic, call-style-independent key.
//
// Components:
//   - Registry: per-namespace configuration with a process-wide default.
//   - Caches / Scope: the entry points. A Scope binds a namespace explicitly;
//     no call-stack inspection is involved.
//   - Region: backend-bound handle exposing Get/Set/Delete/Decorate.
//   - KeyGenerator: derives keys from an explicit FuncSpec parameter
//     descriptor and the effective bound arguments of one call.
//
// Keys:
//
//	<fn>||ns||<sorted arg pairs>   - namespaced entries
//	<fn>|<sorted arg pairs>        - entries without a namespace
//
// Remote keys additionally carry a "<region>:<debugKey>" prefix so that
// scoped clearing can operate from connection parameters alone, without any
// live in-process region state.
package regioncache
