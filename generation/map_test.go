package generation

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_ReusesPositionWithNewGeneration(t *testing.T) {
	m := New[string](3)

	h0, err := m.Put("A")
	require.NoError(t, err)
	assert.Equal(t, Index{Position: 0, Generation: 0}, h0)

	h1, err := m.Put("B")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), h1.Position)

	require.NoError(t, m.Remove(h0))

	h2, err := m.Put("C")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), h2.Position)
	assert.NotEqual(t, h0.Generation, h2.Generation)

	_, err = m.At(h0)
	assert.ErrorIs(t, err, ErrStaleHandle)

	v, err := m.At(h2)
	require.NoError(t, err)
	assert.Equal(t, "C", v)

	assert.Equal(t, 2, m.Count())
}

func TestMap_SingleSlot(t *testing.T) {
	m := New[string](1)

	hx, err := m.Put("X")
	require.NoError(t, err)

	_, err = m.Put("Y")
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	require.NoError(t, m.Remove(hx))

	hy, err := m.Put("Y")
	require.NoError(t, err)
	assert.Equal(t, "Y", Must(m.At(hy)))
}

func TestMap_AscendingAllocation(t *testing.T) {
	m := New[int](5)
	for i := 0; i < 5; i++ {
		h := Must(m.Put(i))
		assert.Equal(t, Index{Position: uint32(i)}, h)
	}
}

func TestMap_UniqueLiveHandles(t *testing.T) {
	m := New[int](64)
	r := rand.New(rand.NewSource(1))

	live := map[Index]int{}
	for i := 0; i < 5000; i++ {
		if len(live) < m.Cap() && (len(live) == 0 || r.Intn(2) == 0) {
			h, err := m.Put(i)
			require.NoError(t, err)
			_, duplicated := live[h]
			require.False(t, duplicated, "handle %s issued twice while live", h)
			live[h] = i
			continue
		}
		for h := range live {
			require.NoError(t, m.Remove(h))
			delete(live, h)
			break
		}
	}

	for h, v := range live {
		got, err := m.At(h)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestMap_RemovedHandleIsStale(t *testing.T) {
	m := New[int](4)
	h := Must(m.Put(42))
	require.NoError(t, m.Remove(h))

	_, err := m.At(h)
	assert.ErrorIs(t, err, ErrStaleHandle)
	assert.ErrorIs(t, m.Remove(h), ErrStaleHandle)
	assert.ErrorIs(t, m.Replace(h, 1), ErrStaleHandle)
	assert.False(t, m.Contains(h))

	// the reused slot does not resurrect the old handle
	h2 := Must(m.Put(43))
	assert.Equal(t, h.Position, h2.Position)
	_, err = m.At(h)
	assert.ErrorIs(t, err, ErrStaleHandle)
}

func TestMap_CapacityBound(t *testing.T) {
	m := New[int](8)
	for i := 0; i < 8; i++ {
		_, err := m.Put(i)
		require.NoError(t, err)
	}
	assert.Equal(t, 8, m.Count())

	_, err := m.Put(8)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	var generationErr *Error
	require.True(t, errors.As(err, &generationErr))
	assert.Equal(t, 8, generationErr.Capacity)
}

func TestMap_CountAccounting(t *testing.T) {
	m := New[int](16)
	r := rand.New(rand.NewSource(7))

	puts, removes := 0, 0
	handles := []Index{}
	for i := 0; i < 2000; i++ {
		if r.Intn(3) > 0 {
			h, err := m.Put(i)
			if err == nil {
				puts++
				handles = append(handles, h)
			} else {
				assert.ErrorIs(t, err, ErrCapacityExceeded)
			}
		} else if len(handles) > 0 {
			j := r.Intn(len(handles))
			require.NoError(t, m.Remove(handles[j]))
			removes++
			handles = append(handles[:j], handles[j+1:]...)
		}
		count := m.Count()
		require.Equal(t, puts-removes, count)
		require.GreaterOrEqual(t, count, 0)
		require.LessOrEqual(t, count, m.Cap())
		require.Equal(t, m.Cap()-count, m.Free())
	}
}

func TestMap_OutOfRange(t *testing.T) {
	m := New[int](2)

	h := Index{Position: 2}
	_, err := m.At(h)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, m.Remove(h), ErrOutOfRange)

	_, err = m.Generation(5)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestMap_ForgedGenerationIsStale(t *testing.T) {
	m := New[int](2)
	h := Must(m.Put(1))

	forged := Index{Position: h.Position, Generation: h.Generation + 3}
	_, err := m.At(forged)
	assert.ErrorIs(t, err, ErrStaleHandle)

	// a free slot rejects even its current generation
	_, err = m.At(Index{Position: 1})
	assert.ErrorIs(t, err, ErrStaleHandle)
}

func TestMap_Replace(t *testing.T) {
	m := New[string](2)
	h := Must(m.Put("before"))

	require.NoError(t, m.Replace(h, "after"))
	assert.Equal(t, "after", Must(m.At(h)))
	assert.Equal(t, uint32(0), Must(m.Generation(h.Position)))
}

func TestMap_RemoveClearsValue(t *testing.T) {
	m := New[*[]byte](1)
	b := make([]byte, 16)
	h := Must(m.Put(&b))

	require.NoError(t, m.Remove(h))
	assert.Nil(t, m.slots[h.Position].value)
}

func TestMap_Traverse(t *testing.T) {
	m := New[string](4)
	a := Must(m.Put("a"))
	Must(m.Put("b"))
	Must(m.Put("c"))
	require.NoError(t, m.Remove(a))

	visited := []string{}
	m.Traverse(func(h Index, value string) bool {
		visited = append(visited, h.String()+"="+value)
		return true
	})
	assert.Equal(t, []string{"1.0=b", "2.0=c"}, visited)

	n := 0
	m.Traverse(func(h Index, value string) bool {
		n++
		return false
	})
	assert.Equal(t, 1, n)
}

func TestMap_RetiresExhaustedSlot(t *testing.T) {
	m := New[int](2)
	m.slots[0].generation = math.MaxUint32

	h := Must(m.Put(1))
	assert.Equal(t, Index{Position: 0, Generation: math.MaxUint32}, h)
	require.NoError(t, m.Remove(h))

	assert.Equal(t, 0, m.Count())

	h2 := Must(m.Put(2))
	assert.Equal(t, uint32(1), h2.Position)

	_, err := m.Put(3)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 1, m.Count())
	assert.Equal(t, 0, m.Free())
}

func TestMust_Panics(t *testing.T) {
	m := New[int](0)
	assert.Panics(t, func() {
		Must(m.Put(1))
	})
}

func TestNew_InvalidCapacity(t *testing.T) {
	assert.Panics(t, func() {
		New[int](-1)
	})
}
