package knaster

import "github.com/ErikNatanael/knaster-sub000/ugen"

type (
	// Inspection is a read-only snapshot of the control-side model, taken
	// for diagnostics and tooling. It never reflects what the audio role
	// is rendering right now, only what was last committed or edited.
	Inspection struct {
		Graph     string
		Config    Config
		Nodes     []NodeInfo
		Outputs   []EdgeInfo
		// Order is the execution order of the most recent compile.
		Order []NodeID
		// Epoch is the newest allocated epoch, Installed the newest one the
		// audio role published.
		Epoch     uint64
		Installed uint64
		// PendingReclaim counts removed nodes waiting for proof of
		// unreachability.
		PendingReclaim    int
		QueuedGenerations int
		Dirty             bool
	}

	NodeInfo struct {
		ID       NodeID
		Implicit bool
		Immortal bool
		// Disconnected marks nodes with no forward path to a graph output.
		// They still execute.
		Disconnected     bool
		RemovalRequested bool
		Inputs           int
		Outputs          int
		// Dependents counts edge-table reads of this node's outputs at the
		// most recent compile.
		Dependents int
		Params     []ugen.ParamDesc
		In         []EdgeInfo
		ParamIn    []EdgeInfo
	}

	EdgeInfo struct {
		Empty     bool
		Source    NodeID
		SourceOut int
		// FromInput is the graph input channel feeding the slot, -1 when
		// the slot is fed by a node or empty.
		FromInput int
		Feedback  bool
	}
)

// Inspect returns a snapshot of the graph.
func (g *Graph) Inspect() Inspection {
	g.mu.Lock()
	defer g.mu.Unlock()
	insp := Inspection{
		Graph:             g.id,
		Config:            g.cfg,
		Order:             append([]NodeID(nil), g.lastOrder...),
		Epoch:             g.clock.Allocated(),
		Installed:         g.clock.Installed(),
		PendingReclaim:    g.reaper.Pending(),
		QueuedGenerations: g.genIn.Len(),
		Dirty:             g.dirty,
	}
	for _, n := range g.nodes {
		ni := NodeInfo{
			ID:               n.id,
			Implicit:         n.implicit,
			Immortal:         n.immortal,
			Disconnected:     n.disconnected,
			RemovalRequested: n.flags.RemovalRequested(),
			Inputs:           n.ins,
			Outputs:          n.outs,
			Dependents:       n.dependents,
			Params:           append([]ugen.ParamDesc(nil), n.params...),
		}
		for _, e := range n.inEdges {
			ni.In = append(ni.In, edgeInfo(e))
		}
		for _, e := range n.parEdges {
			ni.ParamIn = append(ni.ParamIn, edgeInfo(e))
		}
		insp.Nodes = append(insp.Nodes, ni)
	}
	for _, e := range g.outs {
		insp.Outputs = append(insp.Outputs, edgeInfo(e))
	}
	return insp
}

// RemovalRequests returns the nodes whose generators raised the removal
// flag during Process. The caller decides whether to Remove them.
func (g *Graph) RemovalRequests() []NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	var ids []NodeID
	for _, n := range g.nodes {
		if n.flags.RemovalRequested() {
			ids = append(ids, n.id)
		}
	}
	return ids
}

func edgeInfo(e edge) EdgeInfo {
	info := EdgeInfo{FromInput: -1}
	switch e.kind {
	case edgeNone:
		info.Empty = true
	case edgeNode:
		info.Source = e.src.id
		info.SourceOut = e.srcOut
	case edgeInput:
		info.FromInput = e.inputCh
	case edgeFeedback:
		info.Source = e.src.id
		info.SourceOut = e.srcOut
		info.Feedback = true
	}
	return info
}
