// Package sched computes the execution order of graph nodes.
package sched

// Graph is the edge view the orderer consumes. Nodes are dense indexes.
type Graph struct {
	Nodes int
	// Deps lists, per node, the nodes it reads through wired input and
	// parameter slots, in slot order. Feedback taps read last block's value
	// and are not dependencies.
	Deps [][]int
	// Next is the forward view of Deps: per node, the nodes reading from it.
	Next [][]int
	// Outs names the node wired to each graph output channel, -1 when the
	// channel is silent or fed by a passthrough.
	Outs []int
}

// Order returns every node exactly once, dependencies first, plus the set of
// nodes unreachable from any graph output. Traversal is post-order DFS
// seeded from the output channels in ascending order; each candidate seed is
// first replaced by the deepest node downstream of it that is itself wired
// to an output, so a node feeding another output-bound node is never ordered
// relative to its consumer by seed position alone. Unreachable nodes are
// appended at the end; they still execute, their output is just unused.
func Order(g Graph) (order []int, disconnected []bool) {
	order = make([]int, 0, g.Nodes)
	visited := make([]bool, g.Nodes)
	disconnected = make([]bool, g.Nodes)

	direct := make([]bool, g.Nodes)
	for _, n := range g.Outs {
		if n >= 0 {
			direct[n] = true
		}
	}

	var visit func(int)
	visit = func(n int) {
		if visited[n] {
			return
		}
		visited[n] = true
		for _, d := range g.Deps[n] {
			visit(d)
		}
		order = append(order, n)
	}

	d := newDeepener(g, direct)
	for _, n := range g.Outs {
		if n < 0 || visited[n] {
			continue
		}
		visit(d.deepest(n))
	}

	reached := len(order)
	for n := 0; n < g.Nodes; n++ {
		visit(n)
	}
	for _, n := range order[reached:] {
		disconnected[n] = true
	}
	return order, disconnected
}

// deepener memoizes, per node, the farthest output-wired node reachable by
// walking the edges forward. Distances are longest paths; the graph is
// acyclic here since feedback taps are not edges.
type deepener struct {
	g      Graph
	direct []bool
	done   []bool
	dist   []int
	far    []int
}

func newDeepener(g Graph, direct []bool) *deepener {
	return &deepener{
		g:      g,
		direct: direct,
		done:   make([]bool, g.Nodes),
		dist:   make([]int, g.Nodes),
		far:    make([]int, g.Nodes),
	}
}

// deepest returns the node to seed the traversal with in place of n. Since n
// itself is output-wired there is always at least one candidate.
func (d *deepener) deepest(n int) int {
	d.compute(n)
	return d.far[n]
}

func (d *deepener) compute(n int) {
	if d.done[n] {
		return
	}
	d.done[n] = true
	dist, far := -1, -1
	if d.direct[n] {
		dist, far = 0, n
	}
	for _, m := range d.g.Next[n] {
		d.compute(m)
		if d.dist[m] >= 0 && d.dist[m]+1 > dist {
			dist, far = d.dist[m]+1, d.far[m]
		}
	}
	d.dist[n], d.far[n] = dist, far
}
