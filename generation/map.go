package generation

import (
	"fmt"
	"math"

	"github.com/fulldump/genmap/stack"
)

type slot[T any] struct {
	value      T
	generation uint32
	alive      bool
}

// Map is a fixed-capacity array of values addressed by generation-stamped
// handles. It is not safe for concurrent use.
type Map[T any] struct {
	slots   []slot[T]
	free    *stack.Stack[uint32]
	retired int
}

// New builds a map with maxCount slots. Puts return ascending positions
// starting at 0 until the first Remove.
func New[T any](maxCount int) *Map[T] {
	if maxCount < 0 || uint64(maxCount) > math.MaxUint32 {
		panic(fmt.Sprintf("generation: capacity %d out of range", maxCount))
	}

	m := &Map[T]{
		slots: make([]slot[T], maxCount),
		free:  stack.New[uint32](maxCount),
	}

	// Highest position at the bottom, so pops come out as 0, 1, 2...
	err := m.free.PushBatch(func(i int) uint32 {
		return uint32(maxCount - 1 - i)
	}, maxCount)
	if err != nil {
		panic(err)
	}

	return m
}

func (m *Map[T]) Put(value T) (Index, error) {
	position, err := m.free.Pop()
	if err != nil {
		return Index{}, &Error{Capacity: len(m.slots), cause: ErrCapacityExceeded}
	}

	s := &m.slots[position]
	s.value = value
	s.alive = true

	return Index{Position: position, Generation: s.generation}, nil
}

// Remove frees the slot behind h and bumps its generation. A slot whose
// generation reached math.MaxUint32 is retired instead of reused.
func (m *Map[T]) Remove(h Index) error {
	s, err := m.lookup(h)
	if err != nil {
		return err
	}

	var zero T
	s.value = zero
	s.alive = false

	if s.generation == math.MaxUint32 {
		m.retired++
		return nil
	}
	s.generation++

	if err := m.free.Push(h.Position); err != nil {
		// free stack is sized to the slot count
		panic(err)
	}

	return nil
}

// At returns a copy of the value behind h.
func (m *Map[T]) At(h Index) (T, error) {
	s, err := m.lookup(h)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.value, nil
}

// Replace overwrites the value behind h. The generation does not change, so
// h stays valid.
func (m *Map[T]) Replace(h Index, value T) error {
	s, err := m.lookup(h)
	if err != nil {
		return err
	}
	s.value = value
	return nil
}

func (m *Map[T]) Contains(h Index) bool {
	_, err := m.lookup(h)
	return err == nil
}

// Generation returns the current generation of the slot at position.
func (m *Map[T]) Generation(position uint32) (uint32, error) {
	if int(position) >= len(m.slots) {
		return 0, &Error{
			Index:    Index{Position: position},
			Capacity: len(m.slots),
			cause:    ErrOutOfRange,
		}
	}
	return m.slots[position].generation, nil
}

// Traverse calls f for every occupied slot in ascending position order until f
// returns false.
func (m *Map[T]) Traverse(f func(h Index, value T) bool) {
	for i := range m.slots {
		s := &m.slots[i]
		if !s.alive {
			continue
		}
		if !f(Index{Position: uint32(i), Generation: s.generation}, s.value) {
			return
		}
	}
}

// Count returns the number of occupied slots.
func (m *Map[T]) Count() int {
	return len(m.slots) - m.free.Count() - m.retired
}

func (m *Map[T]) Cap() int {
	return len(m.slots)
}

// Free returns how many more values fit. Retired slots are neither occupied
// nor free.
func (m *Map[T]) Free() int {
	return m.free.Count()
}

func (m *Map[T]) lookup(h Index) (*slot[T], error) {
	if int(h.Position) >= len(m.slots) {
		return nil, &Error{Index: h, Capacity: len(m.slots), cause: ErrOutOfRange}
	}

	s := &m.slots[h.Position]
	if !s.alive || s.generation != h.Generation {
		return nil, &Error{Index: h, Capacity: len(m.slots), cause: ErrStaleHandle}
	}

	return s, nil
}
