package knaster

import (
	"fmt"

	"github.com/ErikNatanael/knaster-sub000/ugen"
)

// Connect wires output srcOut of src into input dstIn of dst. If the input
// is already fed, both sources are summed through an implicit adder.
func (g *Graph) Connect(src NodeID, srcOut int, dst NodeID, dstIn int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connect(src, srcOut, dst, dstIn, false, false)
}

// ConnectReplace wires output srcOut of src into input dstIn of dst,
// dropping whatever fed the input before.
func (g *Graph) ConnectReplace(src NodeID, srcOut int, dst NodeID, dstIn int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connect(src, srcOut, dst, dstIn, true, false)
}

// ConnectFeedback wires output srcOut of src into input dstIn of dst through
// one block of delay. The edge orders nothing, which is how a cycle is
// closed: the reader sees the samples the source produced a block ago.
func (g *Graph) ConnectFeedback(src NodeID, srcOut int, dst NodeID, dstIn int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connect(src, srcOut, dst, dstIn, false, true)
}

// ConnectFeedbackReplace is ConnectFeedback dropping the previous edge.
func (g *Graph) ConnectFeedbackReplace(src NodeID, srcOut int, dst NodeID, dstIn int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connect(src, srcOut, dst, dstIn, true, true)
}

func (g *Graph) connect(srcID NodeID, srcOut int, dstID NodeID, dstIn int, replace, feedback bool) error {
	if g.closed {
		return ErrClosed
	}
	src, err := g.lookup(srcID)
	if err != nil {
		return err
	}
	dst, err := g.lookup(dstID)
	if err != nil {
		return err
	}
	if err := src.checkOut(srcOut); err != nil {
		return err
	}
	if dstIn < 0 || dstIn >= dst.ins {
		return fmt.Errorf("%w: input %d of %d on %v", ErrInputOutOfRange, dstIn, dst.ins, dstID)
	}
	e := nodeEdge(src, srcOut)
	if feedback {
		e = feedbackEdge(src, srcOut)
		src.tapDelay(srcOut, g.cfg.BlockSize)
	}
	g.wire(&dst.inEdges[dstIn], e, replace)
	return nil
}

func (n *node) checkOut(out int) error {
	if out < 0 || out >= n.outs {
		return fmt.Errorf("%w: output %d of %d on %v", ErrOutputOutOfRange, out, n.outs, n.id)
	}
	return nil
}

// wire puts e into the slot. Additive wiring of an occupied slot inserts an
// implicit two-input adder so a slot never holds more than one edge.
func (g *Graph) wire(slot *edge, e edge, replace bool) {
	if replace || slot.empty() {
		*slot = e
		g.dirty = true
		return
	}
	add := g.insert(ugen.NewAdd(), true)
	add.inEdges[0] = *slot
	add.inEdges[1] = e
	*slot = nodeEdge(add, 0)
	g.dirty = true
}

// ConnectInput wires graph input channel ch into input dstIn of dst,
// summing with whatever fed the input before.
func (g *Graph) ConnectInput(ch int, dst NodeID, dstIn int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connectInput(ch, dst, dstIn, false)
}

// ConnectInputReplace is ConnectInput dropping the previous edge.
func (g *Graph) ConnectInputReplace(ch int, dst NodeID, dstIn int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connectInput(ch, dst, dstIn, true)
}

func (g *Graph) connectInput(ch int, dstID NodeID, dstIn int, replace bool) error {
	if g.closed {
		return ErrClosed
	}
	dst, err := g.lookup(dstID)
	if err != nil {
		return err
	}
	if ch < 0 || ch >= g.cfg.Inputs {
		return fmt.Errorf("%w: channel %d of %d", ErrGraphInputOutOfRange, ch, g.cfg.Inputs)
	}
	if dstIn < 0 || dstIn >= dst.ins {
		return fmt.Errorf("%w: input %d of %d on %v", ErrInputOutOfRange, dstIn, dst.ins, dstID)
	}
	g.wire(&dst.inEdges[dstIn], inputEdge(ch), replace)
	return nil
}

// ConnectOutput wires output srcOut of src into graph output channel ch,
// summing with whatever fed the channel before.
func (g *Graph) ConnectOutput(src NodeID, srcOut, ch int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connectOutput(src, srcOut, ch, false)
}

// ConnectOutputReplace is ConnectOutput dropping the previous edge.
func (g *Graph) ConnectOutputReplace(src NodeID, srcOut, ch int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connectOutput(src, srcOut, ch, true)
}

func (g *Graph) connectOutput(srcID NodeID, srcOut, ch int, replace bool) error {
	if g.closed {
		return ErrClosed
	}
	src, err := g.lookup(srcID)
	if err != nil {
		return err
	}
	if err := src.checkOut(srcOut); err != nil {
		return err
	}
	if ch < 0 || ch >= g.cfg.Outputs {
		return fmt.Errorf("%w: channel %d of %d", ErrGraphOutputOutOfRange, ch, g.cfg.Outputs)
	}
	g.wire(&g.outs[ch], nodeEdge(src, srcOut), replace)
	return nil
}

// ConnectThrough wires graph input channel in straight to graph output
// channel out, summing with whatever fed the output before.
func (g *Graph) ConnectThrough(in, out int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connectThrough(in, out, false)
}

// ConnectThroughReplace is ConnectThrough dropping the previous edge.
func (g *Graph) ConnectThroughReplace(in, out int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connectThrough(in, out, true)
}

func (g *Graph) connectThrough(in, out int, replace bool) error {
	if g.closed {
		return ErrClosed
	}
	if in < 0 || in >= g.cfg.Inputs {
		return fmt.Errorf("%w: channel %d of %d", ErrGraphInputOutOfRange, in, g.cfg.Inputs)
	}
	if out < 0 || out >= g.cfg.Outputs {
		return fmt.Errorf("%w: channel %d of %d", ErrGraphOutputOutOfRange, out, g.cfg.Outputs)
	}
	g.wire(&g.outs[out], inputEdge(in), replace)
	return nil
}

// ConnectParam drives parameter param of dst at audio rate from output
// srcOut of src, summing with whatever drove it before. The value set by
// Schedule is overridden for as long as the edge exists.
func (g *Graph) ConnectParam(src NodeID, srcOut int, dst NodeID, param int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connectParam(src, srcOut, dst, param, false)
}

// ConnectParamReplace is ConnectParam dropping the previous edge.
func (g *Graph) ConnectParamReplace(src NodeID, srcOut int, dst NodeID, param int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connectParam(src, srcOut, dst, param, true)
}

func (g *Graph) connectParam(srcID NodeID, srcOut int, dstID NodeID, param int, replace bool) error {
	if g.closed {
		return ErrClosed
	}
	src, err := g.lookup(srcID)
	if err != nil {
		return err
	}
	dst, err := g.lookup(dstID)
	if err != nil {
		return err
	}
	if err := src.checkOut(srcOut); err != nil {
		return err
	}
	if param < 0 || param >= len(dst.params) {
		return fmt.Errorf("%w: parameter %d of %d on %v", ErrParamOutOfRange, param, len(dst.params), dstID)
	}
	if dst.ar == nil {
		return fmt.Errorf("%w: %v", ErrAudioRateUnsupported, dstID)
	}
	g.wire(&dst.parEdges[param], nodeEdge(src, srcOut), replace)
	return nil
}

// DisconnectInput clears input dstIn of dst.
func (g *Graph) DisconnectInput(dst NodeID, dstIn int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	n, err := g.lookup(dst)
	if err != nil {
		return err
	}
	if dstIn < 0 || dstIn >= n.ins {
		return fmt.Errorf("%w: input %d of %d on %v", ErrInputOutOfRange, dstIn, n.ins, dst)
	}
	n.inEdges[dstIn] = edge{}
	g.dirty = true
	return nil
}

// DisconnectOutput clears every edge fed from output srcOut of src: node
// inputs, parameter edges and graph outputs alike.
func (g *Graph) DisconnectOutput(src NodeID, srcOut int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	n, err := g.lookup(src)
	if err != nil {
		return err
	}
	if err := n.checkOut(srcOut); err != nil {
		return err
	}
	for _, m := range g.nodes {
		for i := range m.inEdges {
			if m.inEdges[i].references(n) && m.inEdges[i].srcOut == srcOut {
				m.inEdges[i] = edge{}
			}
		}
		for i := range m.parEdges {
			if m.parEdges[i].references(n) && m.parEdges[i].srcOut == srcOut {
				m.parEdges[i] = edge{}
			}
		}
	}
	for i := range g.outs {
		if g.outs[i].references(n) && g.outs[i].srcOut == srcOut {
			g.outs[i] = edge{}
		}
	}
	g.dirty = true
	return nil
}

// DisconnectParam clears parameter edge param of dst, releasing the
// parameter back to its scheduled value.
func (g *Graph) DisconnectParam(dst NodeID, param int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	n, err := g.lookup(dst)
	if err != nil {
		return err
	}
	if param < 0 || param >= len(n.params) {
		return fmt.Errorf("%w: parameter %d of %d on %v", ErrParamOutOfRange, param, len(n.params), dst)
	}
	n.parEdges[param] = edge{}
	g.dirty = true
	return nil
}

// DisconnectGraphInput clears every node input fed from graph input ch.
func (g *Graph) DisconnectGraphInput(ch int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	if ch < 0 || ch >= g.cfg.Inputs {
		return fmt.Errorf("%w: channel %d of %d", ErrGraphInputOutOfRange, ch, g.cfg.Inputs)
	}
	for _, m := range g.nodes {
		for i := range m.inEdges {
			if m.inEdges[i].kind == edgeInput && m.inEdges[i].inputCh == ch {
				m.inEdges[i] = edge{}
			}
		}
	}
	for i := range g.outs {
		if g.outs[i].kind == edgeInput && g.outs[i].inputCh == ch {
			g.outs[i] = edge{}
		}
	}
	g.dirty = true
	return nil
}

// DisconnectGraphOutput silences graph output channel ch.
func (g *Graph) DisconnectGraphOutput(ch int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	if ch < 0 || ch >= g.cfg.Outputs {
		return fmt.Errorf("%w: channel %d of %d", ErrGraphOutputOutOfRange, ch, g.cfg.Outputs)
	}
	g.outs[ch] = edge{}
	g.dirty = true
	return nil
}
