package knaster

import (
	"fmt"

	"github.com/ErikNatanael/knaster-sub000/internal/alloc"
	"github.com/ErikNatanael/knaster-sub000/internal/sched"
	"github.com/ErikNatanael/knaster-sub000/signal"
)

// Commit compiles the pending edits into a new generation and publishes it
// to the audio role. Without pending edits it only drives reclamation.
// ErrQueueFull leaves the edits pending, committing again after the audio
// role caught up publishes them.
func (g *Graph) Commit() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	g.collect()
	if !g.dirty {
		return nil
	}
	gen, err := g.compile()
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	g.reaper.Seal(gen.epoch)
	if !g.genIn.TryPush(gen) {
		return fmt.Errorf("%w: generations", ErrQueueFull)
	}
	g.dirty = false
	g.counters.Published.Add(1)
	g.log.Debug("generation published", "epoch", gen.epoch, "tasks", len(gen.tasks))
	return nil
}

// collect drains retired generations and frees what is provably
// unreachable by the audio role.
func (g *Graph) collect() {
	for {
		if _, ok := g.genOut.TryPop(); !ok {
			break
		}
		g.counters.Returned.Add(1)
	}
	g.reaper.Reap()
}

type feedKey struct {
	n   *node
	out int
}

// compile flattens the registry into an execution plan: order the nodes,
// assign arena slots, resolve every edge to concrete sample slices.
func (g *Graph) compile() (*generation, error) {
	idx := make(map[*node]int, len(g.nodes))
	for i, n := range g.nodes {
		idx[n] = i
	}

	sg := sched.Graph{
		Nodes: len(g.nodes),
		Deps:  make([][]int, len(g.nodes)),
		Next:  make([][]int, len(g.nodes)),
		Outs:  make([]int, g.cfg.Outputs),
	}
	for i, n := range g.nodes {
		for _, e := range n.inEdges {
			if e.forward() {
				d := idx[e.src]
				sg.Deps[i] = append(sg.Deps[i], d)
				sg.Next[d] = append(sg.Next[d], i)
			}
		}
		for _, e := range n.parEdges {
			if e.forward() {
				d := idx[e.src]
				sg.Deps[i] = append(sg.Deps[i], d)
				sg.Next[d] = append(sg.Next[d], i)
			}
		}
	}
	for ch, e := range g.outs {
		if e.kind == edgeNode {
			sg.Outs[ch] = idx[e.src]
		} else {
			sg.Outs[ch] = -1
		}
	}
	order, disconnected := sched.Order(sg)

	// the virtual input stage is allocation item 0, nodes follow in
	// execution order
	pos := make([]int, len(g.nodes))
	for p, ni := range order {
		pos[ni] = p + 1
	}
	// every plain and parameter edge must order its source first; a later
	// source means the edges close a cycle no order can satisfy
	for _, n := range g.nodes {
		for _, e := range n.inEdges {
			if e.forward() && pos[idx[e.src]] >= pos[idx[n]] {
				return nil, fmt.Errorf("%w: %v reads %v", ErrCycle, n.id, e.src.id)
			}
		}
		for _, e := range n.parEdges {
			if e.forward() && pos[idx[e.src]] >= pos[idx[n]] {
				return nil, fmt.Errorf("%w: %v reads %v", ErrCycle, n.id, e.src.id)
			}
		}
	}
	items := make([]alloc.Item, len(order)+1)
	counts := make([]int, len(order)+1)
	items[0] = alloc.Item{Channels: g.cfg.Inputs}
	for p, ni := range order {
		n := g.nodes[ni]
		it := alloc.Item{Channels: n.outs}
		for _, e := range n.inEdges {
			switch e.kind {
			case edgeNode:
				it.Sources = append(it.Sources, pos[idx[e.src]])
				counts[pos[idx[e.src]]]++
			case edgeInput:
				it.Sources = append(it.Sources, 0)
				counts[0]++
			case edgeFeedback:
				// read through the delay block, the source slot is only
				// pinned so the after-block snapshot finds it intact
				counts[pos[idx[e.src]]]++
			}
		}
		for _, e := range n.parEdges {
			if e.kind == edgeNode {
				it.Sources = append(it.Sources, pos[idx[e.src]])
				counts[pos[idx[e.src]]]++
			}
		}
		items[p+1] = it
	}
	// graph output reads are pinned for the whole block
	for _, e := range g.outs {
		if e.kind == edgeNode {
			counts[pos[idx[e.src]]]++
		}
	}

	offsets, size := alloc.Assign(items, counts, g.cfg.BlockSize)
	if g.arena.Ensure(size) {
		g.log.Debug("arena grown", "samples", size)
	}
	resolved := make([]signal.Float64, len(items))
	for p := range items {
		if items[p].Channels == 0 {
			continue
		}
		buf, err := g.arena.Resolve(g.arena.Carve(offsets[p], items[p].Channels))
		if err != nil {
			return nil, err
		}
		resolved[p] = buf
	}

	gen := &generation{
		epoch:     g.clock.Allocate(),
		tasks:     make([]task, len(order)),
		wires:     make([]outputWire, g.cfg.Outputs),
		inputSlot: resolved[0],
	}
	seen := make(map[feedKey]bool)
	lastOrder := make([]NodeID, len(order))
	for p, ni := range order {
		n := g.nodes[ni]
		n.disconnected = disconnected[ni]
		n.dependents = counts[p+1]
		n.slot = offsets[p+1]
		lastOrder[p] = n.id
		in := make(signal.Float64, n.ins)
		for s, e := range n.inEdges {
			switch e.kind {
			case edgeNode:
				in[s] = resolved[pos[idx[e.src]]][e.srcOut]
			case edgeInput:
				in[s] = resolved[0][e.inputCh]
			case edgeFeedback:
				in[s] = e.src.delays[e.srcOut]
				k := feedKey{e.src, e.srcOut}
				if !seen[k] {
					seen[k] = true
					gen.delays = append(gen.delays, delayCopy{
						src: resolved[pos[idx[e.src]]][e.srcOut],
						dst: e.src.delays[e.srcOut],
					})
				}
			default:
				in[s] = g.zero
			}
		}
		gen.tasks[p] = task{u: n.u, fl: &n.flags, in: in, out: resolved[p+1]}
		for pi, e := range n.parEdges {
			if e.kind == edgeNode {
				gen.bindings = append(gen.bindings, paramBinding{
					ar:    n.ar,
					index: pi,
					src:   resolved[pos[idx[e.src]]][e.srcOut],
				})
			}
		}
	}
	for ch, e := range g.outs {
		w := outputWire{fromInput: -1}
		switch e.kind {
		case edgeNode:
			w.src = resolved[pos[idx[e.src]]][e.srcOut]
		case edgeInput:
			w.fromInput = e.inputCh
		}
		gen.wires[ch] = w
	}
	g.lastOrder = lastOrder
	return gen, nil
}
