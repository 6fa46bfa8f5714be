package store

import "sync"

// keyedMutex hands out one mutex per task id and forgets ids nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int]*keyedEntry)}
}

// Lock blocks until id is free and returns the matching unlock function.
func (k *keyedMutex) Lock(id int) func() {
	k.mu.Lock()
	e, ok := k.locks[id]
	if !ok {
		e = &keyedEntry{}
		k.locks[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
