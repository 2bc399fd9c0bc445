// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/regioncache"
//	"github.com/unkn0wn-root/regioncache/hooks/async"
//	"github.com/unkn0wn-root/regioncache/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    KeysClearedEvery: 10, // sample logs: ~every 10th clear
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	caches := regioncache.New(regioncache.Options{
//	    Hooks: hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/regioncache"
)

type Hooks struct {
	inner regioncache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ regioncache.Hooks = (*Hooks)(nil)

func New(inner regioncache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) RegionBuilt(k regioncache.Kind, ns string, ttl int) {
	h.try(func() { h.inner.RegionBuilt(k, ns, ttl) })
}
func (h *Hooks) RemoteFallback(ns string, ttl int) {
	h.try(func() { h.inner.RemoteFallback(ns, ttl) })
}
func (h *Hooks) KeysCleared(k regioncache.Kind, region string, n int) {
	h.try(func() { h.inner.KeysCleared(k, region, n) })
}
func (h *Hooks) StoreFailure(k regioncache.Kind, op string, err error) {
	h.try(func() { h.inner.StoreFailure(k, op, err) })
}
