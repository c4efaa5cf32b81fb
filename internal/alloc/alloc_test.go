package alloc_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ErikNatanael/knaster-sub000/internal/alloc"
)

func TestAssign(t *testing.T) {
	tests := []struct {
		description string
		items       []alloc.Item
		counts      []int
		blockSize   int
		offsets     []int
		size        int
	}{
		{
			description: "chain reuses the dead slot",
			items: []alloc.Item{
				{Channels: 1},
				{Channels: 1, Sources: []int{0}},
				{Channels: 1, Sources: []int{1}},
			},
			// item 2 is output-wired, its count stays up
			counts:    []int{1, 1, 1},
			blockSize: 4,
			// 1 cannot reuse 0's slot while reading it; 2 can reuse 0's
			offsets: []int{0, 4, 0},
			size:    8,
		},
		{
			description: "pinned sources never recycle",
			items: []alloc.Item{
				{Channels: 1},
				{Channels: 1},
				{Channels: 1, Sources: []int{0, 1}},
			},
			// 0 and 1 also feed graph outputs, one extra count each
			counts:    []int{2, 2, 1},
			blockSize: 4,
			offsets:   []int{0, 4, 8},
			size:      12,
		},
		{
			description: "free pool is keyed by channel count",
			items: []alloc.Item{
				{Channels: 2},
				{Channels: 1, Sources: []int{0}},
				{Channels: 2, Sources: []int{1}},
			},
			counts:    []int{1, 1, 1},
			blockSize: 4,
			// the stereo slot of 0 is free when 2 allocates, the mono slot
			// of 1 is not a fit
			offsets: []int{0, 8, 0},
			size:    12,
		},
		{
			description: "unread item recycles immediately",
			items: []alloc.Item{
				{Channels: 1},
				{Channels: 1},
			},
			counts:    []int{0, 1},
			blockSize: 4,
			offsets:   []int{0, 0},
			size:      4,
		},
		{
			description: "channel-less sink takes no slot",
			items: []alloc.Item{
				{Channels: 1},
				{Channels: 0, Sources: []int{0}},
			},
			counts:    []int{1, 0},
			blockSize: 4,
			offsets:   []int{0, -1},
			size:      4,
		},
		{
			description: "duplicate reads of one source",
			items: []alloc.Item{
				{Channels: 2},
				{Channels: 1, Sources: []int{0, 0}},
			},
			counts:    []int{2, 1},
			blockSize: 4,
			offsets:   []int{0, 8},
			size:      12,
		},
	}

	for _, test := range tests {
		t.Log(test.description)
		offsets, size := alloc.Assign(test.items, test.counts, test.blockSize)
		assert.Equal(t, test.offsets, offsets)
		assert.Equal(t, test.size, size)
		checkNoOverlap(t, test.items, test.counts, offsets, test.blockSize)
	}
}

// A source index pointing at a later item must never free that item's slot
// before it was assigned; the later item keeps its own memory.
func TestAssignForwardReference(t *testing.T) {
	items := []alloc.Item{
		{Channels: 1, Sources: []int{1}},
		{Channels: 1},
	}
	counts := []int{1, 1}
	offsets, size := alloc.Assign(items, counts, 4)
	assert.Equal(t, []int{0, 4}, offsets)
	assert.Equal(t, 8, size)
}

// Simulation harness over randomized plans: any two items that are live at
// the same time must hold disjoint ranges.
func TestAssignRandomizedNoOverlap(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for run := 0; run < 200; run++ {
		n := 2 + rnd.Intn(20)
		items := make([]alloc.Item, n)
		counts := make([]int, n)
		for i := range items {
			items[i].Channels = rnd.Intn(4) // occasionally channel-less
			for s := 0; s < i; s++ {
				if rnd.Intn(3) == 0 {
					items[i].Sources = append(items[i].Sources, s)
					counts[s]++
				}
			}
		}
		// a few pinned counts, standing in for graph outputs and taps
		for i := 0; i < n; i += 5 {
			counts[i]++
		}
		offsets, _ := alloc.Assign(items, counts, 8)
		checkNoOverlap(t, items, counts, offsets, 8)
	}
}

// death[i] is the position whose step releases item i; an item is live from
// its own position through the allocation at its death position.
func checkNoOverlap(t *testing.T, items []alloc.Item, counts []int, offsets []int, blockSize int) {
	t.Helper()
	n := len(items)
	death := make([]int, n)
	remaining := make([]int, n)
	copy(remaining, counts)
	for i := range items {
		death[i] = n // pinned items never die
		if remaining[i] == 0 {
			death[i] = i
		}
	}
	for i, it := range items {
		for _, s := range it.Sources {
			remaining[s]--
			if remaining[s] == 0 {
				death[s] = i
			}
		}
	}
	for i := 0; i < n; i++ {
		if offsets[i] < 0 {
			continue
		}
		for j := i + 1; j < n; j++ {
			if offsets[j] < 0 || j > death[i] {
				continue
			}
			iEnd := offsets[i] + items[i].Channels*blockSize
			jEnd := offsets[j] + items[j].Channels*blockSize
			overlap := offsets[i] < jEnd && offsets[j] < iEnd
			assert.False(t, overlap, "items %d and %d share floats while both live", i, j)
		}
	}
}
