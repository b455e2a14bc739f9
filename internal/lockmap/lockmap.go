// Package lockmap provides fine-grained per-key mutual exclusion without
// keeping a mutex alive for every key ever seen: a key's lock exists only
// while at least one goroutine holds or awaits it.
package lockmap

import "sync"

type entry struct {
	mut  sync.Mutex
	refs int
}

type Map[K comparable] struct {
	mut   sync.Mutex
	locks map[K]*entry
}

func New[K comparable]() *Map[K] {
	return &Map[K]{
		locks: make(map[K]*entry),
	}
}

func (lm *Map[K]) Lock(key K) {
	lm.mut.Lock()

	e, ok := lm.locks[key]
	if !ok {
		e = &entry{}
		lm.locks[key] = e
	}

	e.refs++
	lm.mut.Unlock()

	e.mut.Lock()
}

func (lm *Map[K]) Unlock(key K) {
	lm.mut.Lock()

	e := lm.locks[key]
	e.refs--

	if e.refs == 0 {
		delete(lm.locks, key)
	}

	lm.mut.Unlock()

	e.mut.Unlock()
}
