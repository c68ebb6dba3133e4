package generation

import (
	"fmt"
	"strconv"
	"strings"
)

// Index is a handle to a slot: its position plus the generation the slot had
// when the handle was issued.
type Index struct {
	Position   uint32
	Generation uint32
}

// String renders the handle as "<position>.<generation>".
func (i Index) String() string {
	return strconv.FormatUint(uint64(i.Position), 10) + "." + strconv.FormatUint(uint64(i.Generation), 10)
}

func ParseIndex(s string) (Index, error) {
	position, generation, found := strings.Cut(strings.TrimSpace(s), ".")
	if !found {
		return Index{}, fmt.Errorf("%w: '%s'", ErrMalformedIndex, s)
	}

	p, err := strconv.ParseUint(position, 10, 32)
	if err != nil {
		return Index{}, fmt.Errorf("%w: position: %w", ErrMalformedIndex, err)
	}
	g, err := strconv.ParseUint(generation, 10, 32)
	if err != nil {
		return Index{}, fmt.Errorf("%w: generation: %w", ErrMalformedIndex, err)
	}

	return Index{Position: uint32(p), Generation: uint32(g)}, nil
}

// Uint64 packs the handle as position<<32 | generation.
func (i Index) Uint64() uint64 {
	return uint64(i.Position)<<32 | uint64(i.Generation)
}

func IndexFromUint64(u uint64) Index {
	return Index{
		Position:   uint32(u >> 32),
		Generation: uint32(u),
	}
}

func (i Index) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Index) UnmarshalText(text []byte) error {
	parsed, err := ParseIndex(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
