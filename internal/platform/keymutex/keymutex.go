package keymutex

import "sync"

// KeyMutex provides mutual exclusion scoped by string key. The booking engine
// uses it to serialize conflict-check-and-insert per room; operations on
// different keys never contend.
//
// Entries are reference-counted and removed when the last holder unlocks, so
// the table does not grow with the key space.
type KeyMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func New() *KeyMutex {
	return &KeyMutex{entries: make(map[string]*entry)}
}

// Lock acquires the mutex for key and returns the corresponding unlock
// function. Callers must invoke the returned function exactly once.
func (k *KeyMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
