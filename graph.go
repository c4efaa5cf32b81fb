package knaster

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ErikNatanael/knaster-sub000/internal/epoch"
	"github.com/ErikNatanael/knaster-sub000/internal/ring"
	"github.com/ErikNatanael/knaster-sub000/metric"
	"github.com/ErikNatanael/knaster-sub000/signal"
	"github.com/ErikNatanael/knaster-sub000/ugen"
)

const (
	defaultQueueCap   = 4
	defaultEventCap   = 64
	defaultPendingCap = 64
	diagCap           = 64
)

type (
	// Config fixes the rates and io shape of a graph for its lifetime.
	Config struct {
		SampleRate int
		BlockSize  int
		// Inputs and Outputs are the graph's own channel counts, the shape
		// ProcessBlock is called with.
		Inputs  int
		Outputs int
	}

	// Graph is the control-side model: a registry of nodes and the edges
	// between them. All methods may be called from any goroutine, they
	// serialize on an internal mutex and never touch the audio role except
	// through lock-free queues.
	Graph struct {
		mu  sync.Mutex
		id  string
		cfg Config
		log Logger

		nodes   []*node
		byKey   map[uint64]*node
		nextKey uint64
		outs    []edge
		dirty   bool
		closed  bool

		arena *signal.Arena
		zero  []float64

		clock  *epoch.Clock
		reaper *epoch.Reaper

		genIn  *ring.Q[*generation]
		genOut *ring.Q[*generation]
		events *ring.Q[event]
		diags  *ring.Q[Diagnostic]

		counters *metric.Counters

		// lastOrder is the execution order of the most recent compile.
		lastOrder []NodeID
		runner    *Runner

		queueCap   int
		eventCap   int
		pendingCap int
	}
)

// New creates an empty graph and its audio-role runner. The graph starts
// dirty: the first Commit publishes a generation even if nothing was added.
func New(cfg Config, options ...Option) (*Graph, *Runner, error) {
	if err := validate(cfg); err != nil {
		return nil, nil, err
	}
	g := &Graph{
		id:         newUID(),
		cfg:        cfg,
		log:        defaultLogger,
		byKey:      make(map[uint64]*node),
		outs:       make([]edge, cfg.Outputs),
		dirty:      true,
		arena:      signal.NewArena(cfg.BlockSize),
		zero:       make([]float64, cfg.BlockSize),
		queueCap:   defaultQueueCap,
		eventCap:   defaultEventCap,
		pendingCap: defaultPendingCap,
	}
	for _, option := range options {
		if err := option(g); err != nil {
			return nil, nil, err
		}
	}
	if g.counters == nil {
		g.counters = &metric.Counters{}
	}
	g.clock = epoch.NewClock()
	g.reaper = epoch.NewReaper(g.clock)
	g.genIn = ring.New[*generation](g.queueCap)
	// two extra slots so a full commit queue cannot starve returns
	g.genOut = ring.New[*generation](g.queueCap + 2)
	g.events = ring.New[event](g.eventCap)
	g.diags = ring.New[Diagnostic](diagCap)
	g.runner = &Runner{
		cfg:      cfg,
		genIn:    g.genIn,
		genOut:   g.genOut,
		events:   g.events,
		diags:    g.diags,
		clock:    g.clock,
		counters: g.counters,
		pending:  make([]event, 0, g.pendingCap),
	}
	g.log.Debug("graph created", g.id)
	return g, g.runner, nil
}

func validate(cfg Config) error {
	if cfg.SampleRate < 1 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, cfg.SampleRate)
	}
	if cfg.BlockSize < 1 {
		return fmt.Errorf("%w: block size %d", ErrInvalidConfig, cfg.BlockSize)
	}
	if cfg.Inputs < 0 {
		return fmt.Errorf("%w: inputs %d", ErrInvalidConfig, cfg.Inputs)
	}
	if cfg.Outputs < 0 {
		return fmt.Errorf("%w: outputs %d", ErrInvalidConfig, cfg.Outputs)
	}
	return nil
}

// Config returns the rates and io shape the graph was created with.
func (g *Graph) Config() Config {
	return g.cfg
}

// Push initializes u with the graph rates and inserts it as a new node with
// all inputs unconnected. The node renders from the Commit after it is
// wired to an output, disconnected nodes still execute.
func (g *Graph) Push(u ugen.UGen) (NodeID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return NodeID{}, ErrClosed
	}
	if u == nil {
		return NodeID{}, errors.New("nil unit generator")
	}
	return g.insert(u, false).id, nil
}

func (g *Graph) insert(u ugen.UGen, implicit bool) *node {
	u.Init(g.cfg.SampleRate, g.cfg.BlockSize)
	g.nextKey++
	n := &node{
		id:       NodeID{key: g.nextKey, graph: g.id},
		u:        u,
		ins:      u.Inputs(),
		outs:     u.Outputs(),
		params:   u.Params(),
		implicit: implicit,
		slot:     -1,
	}
	n.inEdges = make([]edge, n.ins)
	n.parEdges = make([]edge, len(n.params))
	n.ar, _ = u.(ugen.AudioRate)
	n.sm, _ = u.(ugen.Smoothed)
	n.fl, _ = u.(ugen.Flusher)
	g.nodes = append(g.nodes, n)
	g.byKey[n.id.key] = n
	g.dirty = true
	g.log.Debug("node pushed", n.id)
	return n
}

func (g *Graph) lookup(id NodeID) (*node, error) {
	if id.graph != g.id {
		if !id.Valid() {
			return nil, ErrNodeNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrWrongGraph, id)
	}
	n, ok := g.byKey[id.key]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNodeNotFound, id)
	}
	return n, nil
}

// Remove deletes the node and clears every edge referencing it. The memory
// behind the node stays alive until the audio role has moved past the last
// generation that might execute it, then its resources are flushed.
func (g *Graph) Remove(id NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	n, err := g.lookup(id)
	if err != nil {
		return err
	}
	if n.immortal {
		return fmt.Errorf("%w: %v", ErrImmortalNode, id)
	}
	g.remove(n)
	return nil
}

func (g *Graph) remove(n *node) {
	for _, m := range g.nodes {
		if m == n {
			continue
		}
		for i := range m.inEdges {
			if m.inEdges[i].references(n) {
				m.inEdges[i] = edge{}
			}
		}
		for i := range m.parEdges {
			if m.parEdges[i].references(n) {
				m.parEdges[i] = edge{}
			}
		}
	}
	for i := range g.outs {
		if g.outs[i].references(n) {
			g.outs[i] = edge{}
		}
	}
	for i, m := range g.nodes {
		if m == n {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			break
		}
	}
	delete(g.byKey, n.id.key)
	n.departed.Store(true)
	g.dirty = true
	g.reaper.Stage(func() { g.destroy(n) })
	g.log.Debug("node removed", n.id)
}

// destroy runs once reclamation is proven safe for the node.
func (g *Graph) destroy(n *node) {
	if n.fl != nil {
		if err := n.fl.Flush(); err != nil {
			g.log.Info("flush failed", n.id, err)
		}
	}
	g.counters.Reclaimed.Add(1)
	g.log.Debug("node reclaimed", n.id)
}

// SetMortality marks the node immortal or mortal again. Removing an
// immortal node fails, which protects structural nodes from sweeps.
func (g *Graph) SetMortality(id NodeID, immortal bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	n, err := g.lookup(id)
	if err != nil {
		return err
	}
	n.immortal = immortal
	return nil
}

// ParamIndex resolves a parameter name on the node to its index.
func (g *Graph) ParamIndex(id NodeID, name string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, err := g.lookup(id)
	if err != nil {
		return 0, err
	}
	i, ok := n.paramIndex(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q on %v", ErrParamNotFound, name, id)
	}
	return i, nil
}

// Close tears the graph down on the control side and flushes all node
// resources. The audio role must have stopped rendering before Close.
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	g.closed = true
	for {
		if _, ok := g.genOut.TryPop(); !ok {
			break
		}
	}
	for {
		if _, ok := g.genIn.TryPop(); !ok {
			break
		}
	}
	g.reaper.Flush()
	var errs []error
	for _, n := range g.nodes {
		n.departed.Store(true)
		if n.fl != nil {
			if err := n.fl.Flush(); err != nil {
				errs = append(errs, fmt.Errorf("flush %v: %w", n.id, err))
			}
		}
	}
	g.nodes = nil
	g.byKey = nil
	g.log.Debug("graph closed", g.id)
	return errors.Join(errs...)
}
