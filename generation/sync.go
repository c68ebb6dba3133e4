package generation

import (
	"sync"
)

// Sync guards a Map with a RWMutex.
type Sync[T any] struct {
	m     *Map[T]
	mutex sync.RWMutex
}

func NewSync[T any](maxCount int) *Sync[T] {
	return &Sync[T]{
		m: New[T](maxCount),
	}
}

func (s *Sync[T]) Put(value T) (Index, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.m.Put(value)
}

func (s *Sync[T]) Remove(h Index) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.m.Remove(h)
}

func (s *Sync[T]) At(h Index) (T, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.m.At(h)
}

func (s *Sync[T]) Replace(h Index, value T) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.m.Replace(h, value)
}

func (s *Sync[T]) Contains(h Index) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.m.Contains(h)
}

func (s *Sync[T]) Generation(position uint32) (uint32, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.m.Generation(position)
}

// Traverse holds the read lock for the whole walk; f must not write to s.
func (s *Sync[T]) Traverse(f func(h Index, value T) bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	s.m.Traverse(f)
}

func (s *Sync[T]) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.m.Count()
}

func (s *Sync[T]) Cap() int {
	return s.m.Cap()
}

func (s *Sync[T]) Free() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.m.Free()
}

// Write runs f with exclusive access to the underlying map, for compound
// operations such as read-modify-write.
func (s *Sync[T]) Write(f func(m *Map[T]) error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return f(s.m)
}

// Read runs f with shared access to the underlying map.
func (s *Sync[T]) Read(f func(m *Map[T]) error) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return f(s.m)
}
