package preview

import "sync"

// Memo caches a value derived from a versioned source. The value is
// recomputed only when the version passed to Get differs from the one it was
// computed for.
type Memo[T any] struct {
	mu       sync.Mutex
	version  uint64
	valid    bool
	value    T
	computed int
}

func (m *Memo[T]) Get(version uint64, compute func() T) T {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && m.version == version {
		return m.value
	}
	m.value = compute()
	m.version = version
	m.valid = true
	m.computed++
	return m.value
}

// Computations reports how many times the value has been computed.
func (m *Memo[T]) Computations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computed
}
