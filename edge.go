package knaster

type (
	edgeKind uint8

	// edge is one wiring entry. A destination slot holds at most one edge,
	// additive connects insert implicit adders to keep it that way.
	edge struct {
		kind    edgeKind
		src     *node
		srcOut  int
		inputCh int
	}
)

const (
	edgeNone edgeKind = iota
	// edgeNode reads a node output rendered earlier in the same block.
	edgeNode
	// edgeInput reads a graph input channel.
	edgeInput
	// edgeFeedback reads a node output with one block of delay, breaking
	// what would otherwise be a cycle.
	edgeFeedback
)

func nodeEdge(src *node, out int) edge {
	return edge{kind: edgeNode, src: src, srcOut: out}
}

func inputEdge(ch int) edge {
	return edge{kind: edgeInput, inputCh: ch}
}

func feedbackEdge(src *node, out int) edge {
	return edge{kind: edgeFeedback, src: src, srcOut: out}
}

func (e edge) empty() bool {
	return e.kind == edgeNone
}

// references reports whether the edge reads any output of n.
func (e edge) references(n *node) bool {
	return (e.kind == edgeNode || e.kind == edgeFeedback) && e.src == n
}

// forward reports whether the edge creates a same-block ordering dependency.
func (e edge) forward() bool {
	return e.kind == edgeNode
}
