package signal

import (
	"errors"
	"fmt"
)

type (
	// Arena is one contiguous backing store for the block buffers of a graph.
	// The control role owns and resizes it; the audio role only ever touches
	// channel slices resolved out of it. Contents are per-block scratch,
	// nothing is carried across a grow.
	Arena struct {
		blockSize int
		epoch     uint64
		data      []float64
	}

	// Range is a handle to a slot inside an arena: the offset of its first
	// float and its channel count, tagged with the arena epoch it was carved
	// for. A range taken before a grow no longer resolves.
	Range struct {
		Epoch    uint64
		Offset   int
		Channels int
	}
)

var (
	// ErrStaleRange is returned when a range is resolved against an arena
	// reallocated after the range was carved.
	ErrStaleRange = errors.New("stale arena range")

	// ErrRangeBounds is returned when a range does not fit the arena.
	ErrRangeBounds = errors.New("arena range out of bounds")
)

// NewArena returns an empty arena for block buffers of the given size.
func NewArena(blockSize int) *Arena {
	return &Arena{blockSize: blockSize, epoch: 1}
}

// BlockSize returns the per-channel sample count of every slot.
func (a *Arena) BlockSize() int {
	return a.blockSize
}

// Epoch returns the current arena epoch. It advances on every reallocation.
func (a *Arena) Epoch() uint64 {
	return a.epoch
}

// Size returns the current capacity in floats.
func (a *Arena) Size() int {
	return len(a.data)
}

// Ensure makes the arena at least size floats long. When the backing store
// must be reallocated, the epoch advances and true is returned; generations
// resolved against the previous store keep it alive until they are dropped.
func (a *Arena) Ensure(size int) bool {
	if size <= len(a.data) {
		return false
	}
	grown := 2 * len(a.data)
	if grown < size {
		grown = size
	}
	a.data = make([]float64, grown)
	a.epoch++
	return true
}

// Carve returns a range for a slot at offset with the given channel count,
// tagged with the current epoch.
func (a *Arena) Carve(offset, channels int) Range {
	return Range{Epoch: a.epoch, Offset: offset, Channels: channels}
}

// Resolve returns the per-channel slices a range names. The range epoch and
// bounds are validated so a handle carved before a grow fails loudly instead
// of aliasing freed memory.
func (a *Arena) Resolve(r Range) (Float64, error) {
	if r.Epoch != a.epoch {
		return nil, fmt.Errorf("%w: range epoch %d, arena epoch %d", ErrStaleRange, r.Epoch, a.epoch)
	}
	if r.Offset < 0 || r.Channels < 0 || r.Offset+r.Channels*a.blockSize > len(a.data) {
		return nil, fmt.Errorf("%w: offset %d, %d channels of %d samples in %d floats",
			ErrRangeBounds, r.Offset, r.Channels, a.blockSize, len(a.data))
	}
	out := make(Float64, r.Channels)
	for c := range out {
		base := r.Offset + c*a.blockSize
		out[c] = a.data[base : base+a.blockSize : base+a.blockSize]
	}
	return out, nil
}
