package registry

import "sync"

// keyedLocks serializes read-modify-write sequences per agent id, so two
// concurrent rating submissions to the same agent cannot race on the
// running mean. Different ids proceed in parallel. Entries are removed
// when their agent is deleted, keeping the map bounded by the number of
// live agents.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns it, so the holder unlocks
// the same instance even if the entry is removed in the meantime.
func (k *keyedLocks) Lock(key string) *sync.Mutex {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock
}

// Remove drops the entry for key. A goroutine still holding the mutex
// keeps its own reference and unlocks it normally.
func (k *keyedLocks) Remove(key string) {
	k.mu.Lock()
	delete(k.locks, key)
	k.mu.Unlock()
}
