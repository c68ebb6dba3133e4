package stack

import (
	"errors"
)

var (
	ErrCapacityExceeded = errors.New("stack capacity exceeded")
	ErrEmpty            = errors.New("stack is empty")
)

// Stack is a bounded LIFO buffer. Its backing slice is allocated once by New
// and never grows.
type Stack[T any] struct {
	items []T
	count int
}

func New[T any](maxCount int) *Stack[T] {
	if maxCount < 0 {
		maxCount = 0
	}
	return &Stack[T]{
		items: make([]T, maxCount),
	}
}

func (s *Stack[T]) Push(item T) error {
	if s.count == len(s.items) {
		return ErrCapacityExceeded
	}
	s.items[s.count] = item
	s.count++
	return nil
}

func (s *Stack[T]) Pop() (T, error) {
	var zero T
	if s.count == 0 {
		return zero, ErrEmpty
	}
	s.count--
	item := s.items[s.count]
	s.items[s.count] = zero
	return item, nil
}

// PushBatch appends generator(i) for i in [0, count). Nothing is pushed when
// the batch does not fit.
func (s *Stack[T]) PushBatch(generator func(i int) T, count int) error {
	if count < 0 || s.count+count > len(s.items) {
		return ErrCapacityExceeded
	}
	for i := 0; i < count; i++ {
		s.items[s.count] = generator(i)
		s.count++
	}
	return nil
}

func (s *Stack[T]) Empty() bool {
	return s.count == 0
}

func (s *Stack[T]) Full() bool {
	return s.count == len(s.items)
}

func (s *Stack[T]) Count() int {
	return s.count
}

func (s *Stack[T]) Cap() int {
	return len(s.items)
}
