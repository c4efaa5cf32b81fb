package knaster

import (
	"fmt"
	"sync/atomic"

	"github.com/ErikNatanael/knaster-sub000/ugen"
)

type (
	// NodeID identifies a node within the graph that issued it. Ids are
	// never reused, a removed node's id stays dead forever.
	NodeID struct {
		key   uint64
		graph string
	}

	node struct {
		id       NodeID
		u        ugen.UGen
		ins      int
		outs     int
		params   []ugen.ParamDesc
		immortal bool
		// implicit marks adders inserted by additive connects.
		implicit bool
		// departed flips when the node leaves the registry. Compiled plans
		// may keep running it until a newer plan is installed, but scheduled
		// events stop targeting it.
		departed atomic.Bool
		flags    ugen.Flags

		// capability views, asserted once at insert
		ar ugen.AudioRate
		sm ugen.Smoothed
		fl ugen.Flusher

		inEdges  []edge
		parEdges []edge
		// delays holds one persistent block per output tapped by a feedback
		// edge. It lives outside the arena and survives recompiles, carrying
		// the previous block's samples across the cycle.
		delays map[int][]float64

		// last compile results, kept for inspection
		disconnected bool
		dependents   int
		slot         int
	}
)

// Valid reports whether the id was issued by a graph.
func (id NodeID) Valid() bool {
	return id.graph != ""
}

func (id NodeID) String() string {
	if id.graph == "" {
		return "node/none"
	}
	return fmt.Sprintf("%s/%d", id.graph, id.key)
}

func (n *node) paramIndex(name string) (int, bool) {
	for i := range n.params {
		if n.params[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// tapDelay makes sure output out has a feedback delay block.
func (n *node) tapDelay(out, blockSize int) {
	if n.delays == nil {
		n.delays = make(map[int][]float64)
	}
	if _, ok := n.delays[out]; !ok {
		n.delays[out] = make([]float64, blockSize)
	}
}
