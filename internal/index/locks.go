package index

import "sync"

// docLocks serializes index mutations per document id. The storage layer's
// load-modify-save is not atomic, so two concurrent writes to the same
// document id must not interleave; writes to different ids proceed in
// parallel.
type docLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newDocLocks() *docLocks {
	return &docLocks{locks: make(map[string]*lockEntry)}
}

// acquire blocks until the lock for id is held and returns the release func.
// Entries are reference counted so the map does not grow without bound.
func (d *docLocks) acquire(id string) func() {
	d.mu.Lock()
	entry, ok := d.locks[id]
	if !ok {
		entry = &lockEntry{}
		d.locks[id] = entry
	}
	entry.refs++
	d.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		d.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(d.locks, id)
		}
		d.mu.Unlock()
	}
}
