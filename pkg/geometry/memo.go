package geometry

import "sync"

// memo holds one lazily derived quantity. The first get runs f; every later
// get, including concurrent ones racing the first, returns the same result.
type memo[T any] struct {
	once sync.Once
	val  T
	err  error
}

func (m *memo[T]) get(f func() (T, error)) (T, error) {
	m.once.Do(func() { m.val, m.err = f() })
	return m.val, m.err
}

func (m *memo[T]) value(f func() T) T {
	m.once.Do(func() { m.val = f() })
	return m.val
}
