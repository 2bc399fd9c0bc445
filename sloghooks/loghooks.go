package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/regioncache"
)

type Options struct {
	// Sampling to avoid floods on busy clearing paths; 0/1 = log all.
	KeysClearedEvery  uint64
	StoreFailureEvery uint64
}

// Hooks logs region lifecycle events through slog. Region builds and remote
// fallbacks are rare and always logged; clears and store failures can be
// sampled.
type Hooks struct {
	l    *slog.Logger
	opts Options

	clearedCtr atomic.Uint64
	failureCtr atomic.Uint64
}

var _ regioncache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) RegionBuilt(kind regioncache.Kind, namespace string, ttlSeconds int) {
	if h.l == nil {
		return
	}
	h.l.Debug("regioncache.region_built",
		"kind", kind.String(),
		"namespace", namespace,
		"ttl", ttlSeconds)
}

func (h *Hooks) RemoteFallback(namespace string, ttlSeconds int) {
	if h.l == nil {
		return
	}
	h.l.Warn("regioncache.remote_fallback",
		"namespace", namespace,
		"ttl", ttlSeconds)
}

func (h *Hooks) KeysCleared(kind regioncache.Kind, region string, count int) {
	if h.l == nil || !sample(h.opts.KeysClearedEvery, &h.clearedCtr) {
		return
	}
	h.l.Info("regioncache.keys_cleared",
		"kind", kind.String(),
		"region", region,
		"count", count)
}

func (h *Hooks) StoreFailure(kind regioncache.Kind, op string, err error) {
	if h.l == nil || !sample(h.opts.StoreFailureEvery, &h.failureCtr) {
		return
	}
	h.l.Error("regioncache.store_failure",
		"kind", kind.String(),
		"op", op,
		"err", err)
}
