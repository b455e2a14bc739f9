package generic

import "sync"

// SyncMap is a generic wrapper around sync.Map that avoids type
// assertions at the call sites.
type SyncMap[K comparable, V any] struct {
	m sync.Map
}

func (m *SyncMap[K, V]) Store(key K, value V) {
	m.m.Store(key, value)
}

func (m *SyncMap[K, V]) Load(key K) (value V, ok bool) {
	if v, ok := m.m.Load(key); ok {
		return v.(V), true
	}

	var zero V

	return zero, false
}

func (m *SyncMap[K, V]) Delete(key K) {
	m.m.Delete(key)
}

// Range calls f for each entry until f returns false.
func (m *SyncMap[K, V]) Range(f func(key K, value V) bool) {
	m.m.Range(func(k, v interface{}) bool {
		return f(k.(K), v.(V))
	})
}
