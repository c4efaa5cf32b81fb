// Package alloc assigns arena slots to node outputs for one compiled plan.
package alloc

// Item is one scheduled node, in execution order.
type Item struct {
	// Channels is the output channel count; items without outputs take no
	// slot.
	Channels int
	// Sources lists the item indexes whose output slots this item reads, one
	// entry per wired input and parameter slot.
	Sources []int
}

// Assign plans one output slot per item, reusing slots as they die. counts
// holds each item's dependent count; every Sources reference decrements its
// source and a slot whose count reaches zero goes back to the free pool for
// a later item. References that never decrement, graph output edges and
// feedback taps, keep their slot live to the end of the block. An item's
// own slot is taken before its sources are released, so input and output
// never alias.
//
// Returns the float offset per item, -1 for channel-less items, and the
// total arena size the plan needs.
func Assign(items []Item, counts []int, blockSize int) (offsets []int, size int) {
	offsets = make([]int, len(items))
	// unassigned up front, so a release triggered before an item's own
	// allocation can never push a slot it does not hold
	for i := range offsets {
		offsets[i] = -1
	}
	remaining := make([]int, len(counts))
	copy(remaining, counts)
	// free slots, LIFO per channel count: last released is first reused,
	// which keeps the hot slot hot
	free := make(map[int][]int)

	release := func(i int) {
		if offsets[i] >= 0 {
			free[items[i].Channels] = append(free[items[i].Channels], offsets[i])
		}
	}

	for i, it := range items {
		if it.Channels > 0 {
			if stack := free[it.Channels]; len(stack) > 0 {
				offsets[i] = stack[len(stack)-1]
				free[it.Channels] = stack[:len(stack)-1]
			} else {
				offsets[i] = size
				size += it.Channels * blockSize
			}
		}
		if remaining[i] == 0 {
			// nothing downstream reads it, recycle right away
			release(i)
		}
		for _, s := range it.Sources {
			remaining[s]--
			if remaining[s] == 0 {
				release(s)
			}
		}
	}
	return offsets, size
}
