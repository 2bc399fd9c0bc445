// Package filelock provides the read/write mutex protocol used by the
// on-disk cache store. Any number of readers share the lock exclusive of any
// writer; exactly one writer excludes all other readers and writers. Both
// acquire paths offer a non-blocking mode for cooperative retry strategies.
package filelock

import "sync"

type Mutex struct {
	mu      sync.Mutex
	cond    *sync.Cond
	readers int
	writer  bool
}

func New() *Mutex {
	m := &Mutex{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// AcquireRead takes a shared lock. With wait=false it returns immediately,
// reporting whether the lock was taken; with wait=true it always eventually
// returns true.
func (m *Mutex) AcquireRead(wait bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.writer {
		if !wait {
			return false
		}
		m.cond.Wait()
	}
	m.readers++
	return true
}

// AcquireWrite takes the exclusive lock, waiting out current readers and any
// active writer. Non-blocking mode returns false instead of waiting.
func (m *Mutex) AcquireWrite(wait bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.writer || m.readers > 0 {
		if !wait {
			return false
		}
		m.cond.Wait()
	}
	m.writer = true
	return true
}

func (m *Mutex) ReleaseRead() {
	m.mu.Lock()
	m.readers--
	m.mu.Unlock()
	m.cond.Broadcast()
}

func (m *Mutex) ReleaseWrite() {
	m.mu.Lock()
	m.writer = false
	m.mu.Unlock()
	m.cond.Broadcast()
}
