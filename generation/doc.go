// Package generation implements a fixed-capacity slot map that hands out
// generation-stamped handles.
//
// A handle (Index) records the slot position and the slot's generation at the
// time of Put. Remove bumps the generation, so every handle issued for the
// previous occupancy becomes stale, even after the slot is reused:
//
//	m := generation.New[string](3)
//	a, _ := m.Put("A")   // 0.0
//	m.Remove(a)
//	c, _ := m.Put("C")   // 0.1, same position, new generation
//	_, err := m.At(a)    // errors.Is(err, generation.ErrStaleHandle)
//
// Map is meant for a single owner. Sync wraps it with a RWMutex for shared
// use.
package generation
