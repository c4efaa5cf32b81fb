package knaster

import (
	"sync/atomic"

	"github.com/ErikNatanael/knaster-sub000/internal/epoch"
	"github.com/ErikNatanael/knaster-sub000/internal/ring"
	"github.com/ErikNatanael/knaster-sub000/metric"
	"github.com/ErikNatanael/knaster-sub000/ugen"
)

type (
	// Runner is the audio-role endpoint of a graph. Exactly one goroutine
	// may call ProcessBlock. In steady state a block touches no locks and
	// allocates nothing; all decisions that could fail or block were made
	// on the control side.
	Runner struct {
		cfg      Config
		genIn    *ring.Q[*generation]
		genOut   *ring.Q[*generation]
		events   *ring.Q[event]
		diags    *ring.Q[Diagnostic]
		clock    *epoch.Clock
		counters *metric.Counters

		current *generation
		// parked holds one retired generation when the return queue was
		// full. It goes back first on the next retirement.
		parked  *generation
		pending []event

		frame  uint64
		frames atomic.Uint64

		removalPending bool
		removalFrom    uint64
		removalActive  bool
		removalRaised  atomic.Bool
	}
)

// SampleRate returns the graph sample rate.
func (r *Runner) SampleRate() int {
	return r.cfg.SampleRate
}

// BlockSize returns the graph block size.
func (r *Runner) BlockSize() int {
	return r.cfg.BlockSize
}

// Inputs returns the number of graph input channels.
func (r *Runner) Inputs() int {
	return r.cfg.Inputs
}

// Outputs returns the number of graph output channels.
func (r *Runner) Outputs() int {
	return r.cfg.Outputs
}

// Frame returns the absolute frame count of completed blocks. Safe from
// any goroutine.
func (r *Runner) Frame() uint64 {
	return r.frames.Load()
}

// RemovalRaised reports that the graph asked its driver to remove it. The
// output was already silent for the tail of the block that raised it.
func (r *Runner) RemovalRaised() bool {
	return r.removalRaised.Load()
}

// ProcessBlock renders the next block. in must hold Inputs() channels and
// out Outputs() channels of BlockSize() samples each; wrong shapes render
// silence for the affected channels and are reported through diagnostics,
// the audio role never fails loudly. Before any rendering the runner
// installs a newly committed generation if one arrived and applies the
// scheduled changes that came due, so edits always land on block
// boundaries.
func (r *Runner) ProcessBlock(in, out [][]float64) {
	if gen, ok := r.genIn.TryPop(); ok {
		r.install(gen)
	}
	r.drainEvents()
	ctx := ugen.Context{
		SampleRate: r.cfg.SampleRate,
		BlockSize:  r.cfg.BlockSize,
		Frame:      r.frame,
	}
	r.scanPending(ctx)

	if gen := r.current; gen != nil {
		r.copyInput(gen, in)
		for i := range gen.tasks {
			t := &gen.tasks[i]
			t.u.Process(ctx, t.fl, t.in, t.out)
		}
		for _, d := range gen.delays {
			copy(d.dst, d.src)
		}
		r.populate(gen, in, out)
	} else {
		zeroBlock(out)
	}
	r.applyRemoval(out)

	r.frame += uint64(r.cfg.BlockSize)
	r.frames.Store(r.frame)
	r.counters.Blocks.Add(1)
	r.counters.Frames.Add(uint64(r.cfg.BlockSize))
}

// install swaps the current generation. Audio-rate bindings of the old plan
// are detached before the new plan's attach, then the old plan retires and
// the new epoch is published for the reaper.
func (r *Runner) install(gen *generation) {
	old := r.current
	if old != nil {
		for _, b := range old.bindings {
			b.ar.BindParam(b.index, nil)
		}
	}
	r.current = gen
	for _, b := range gen.bindings {
		b.ar.BindParam(b.index, b.src)
	}
	r.clock.Install(gen.epoch)
	r.counters.Installs.Add(1)
	if old != nil {
		r.retire(old)
	}
}

func (r *Runner) retire(old *generation) {
	if r.parked != nil && r.genOut.TryPush(r.parked) {
		r.parked = nil
	}
	if r.genOut.TryPush(old) {
		return
	}
	if r.parked == nil {
		r.parked = old
		r.pushDiag(Diagnostic{Kind: DiagGenerationParked, Frame: r.frame})
		return
	}
	// shelf occupied too: drop the older reference, the registry and the
	// reaper keep everything it points to alive
	r.parked = old
	r.pushDiag(Diagnostic{Kind: DiagGenerationDropped, Frame: r.frame})
}

func (r *Runner) drainEvents() {
	for {
		ev, ok := r.events.TryPop()
		if !ok {
			return
		}
		if len(r.pending) == cap(r.pending) {
			d := Diagnostic{Kind: DiagEventEvicted, Frame: r.frame}
			if oldest := r.pending[0]; oldest.node != nil {
				d.Node = oldest.node.id
				d.Param = oldest.param
			}
			r.pending = r.pending[:copy(r.pending, r.pending[1:])]
			r.pushDiag(d)
			r.counters.EventsDropped.Add(1)
		}
		r.pending = append(r.pending, ev)
	}
}

// scanPending applies every pending change whose condition holds for the
// block about to render and keeps the rest.
func (r *Runner) scanPending(ctx ugen.Context) {
	kept := r.pending[:0]
	for i := range r.pending {
		ev := r.pending[i]
		if !ready(ev, ctx) {
			kept = append(kept, ev)
			continue
		}
		r.apply(ev, ctx)
	}
	r.pending = kept
}

func ready(ev event, ctx ugen.Context) bool {
	switch ev.when.kind {
	case condFrame:
		if ev.kind == evRemoveGraph {
			// removal zeroes mid-block from the requested frame, so it is
			// due already in the block containing it
			return ev.when.frame < ctx.Frame+uint64(ctx.BlockSize)
		}
		// parameters land on the first boundary at or after the frame,
		// never earlier than scheduled
		return ev.when.frame <= ctx.Frame
	case condToken:
		return ev.when.token != nil && ev.when.token.Ready()
	default:
		return true
	}
}

func (r *Runner) apply(ev event, ctx ugen.Context) {
	switch ev.kind {
	case evRemoveGraph:
		r.removalPending = true
		if ev.when.kind == condFrame {
			r.removalFrom = ev.when.frame
		} else {
			r.removalFrom = ctx.Frame
		}
	case evParam:
		if ev.node != nil && ev.node.departed.Load() {
			r.pushDiag(Diagnostic{
				Kind:  DiagDepartedTarget,
				Node:  ev.node.id,
				Param: ev.param,
				Frame: ctx.Frame,
			})
			r.counters.EventsDropped.Add(1)
			return
		}
		if ev.hasSmooth {
			ev.sm.SetSmoothing(ev.param, ev.smoothing)
		}
		if ev.hasValue {
			ev.u.ApplyParam(ctx, ev.param, ev.value)
		}
		r.counters.EventsApplied.Add(1)
	}
}

func (r *Runner) copyInput(gen *generation, in [][]float64) {
	if len(gen.inputSlot) == 0 {
		return
	}
	bad := false
	for ch, dst := range gen.inputSlot {
		if ch < len(in) && len(in[ch]) >= len(dst) {
			copy(dst, in[ch])
			continue
		}
		for i := range dst {
			dst[i] = 0
		}
		bad = true
	}
	if bad || len(in) != len(gen.inputSlot) {
		r.pushDiag(Diagnostic{Kind: DiagBadBlockShape, Frame: r.frame})
	}
}

func (r *Runner) populate(gen *generation, in, out [][]float64) {
	if len(out) != len(gen.wires) {
		r.pushDiag(Diagnostic{Kind: DiagBadBlockShape, Frame: r.frame})
	}
	for ch := range out {
		o := out[ch]
		if ch >= len(gen.wires) {
			zeroFrom(o, 0)
			continue
		}
		w := gen.wires[ch]
		switch {
		case w.src != nil:
			zeroFrom(o, copy(o, w.src))
		case w.fromInput >= 0 && w.fromInput < len(in):
			zeroFrom(o, copy(o, in[w.fromInput]))
		default:
			zeroFrom(o, 0)
		}
	}
}

// applyRemoval zeroes the output tail from the removal frame on. It runs
// after the wires so the silence sticks, and keeps the whole output silent
// on every block after the flag was raised.
func (r *Runner) applyRemoval(out [][]float64) {
	if r.removalActive {
		zeroBlock(out)
		return
	}
	if !r.removalPending {
		return
	}
	if r.removalFrom >= r.frame+uint64(r.cfg.BlockSize) {
		return
	}
	from := 0
	if r.removalFrom > r.frame {
		from = int(r.removalFrom - r.frame)
	}
	for ch := range out {
		zeroFrom(out[ch], from)
	}
	r.removalPending = false
	r.removalActive = true
	r.removalRaised.Store(true)
}

func (r *Runner) pushDiag(d Diagnostic) {
	if !r.diags.TryPush(d) {
		r.counters.DiagnosticsDropped.Add(1)
	}
}

func zeroBlock(out [][]float64) {
	for ch := range out {
		zeroFrom(out[ch], 0)
	}
}

func zeroFrom(buf []float64, from int) {
	for i := from; i < len(buf); i++ {
		buf[i] = 0
	}
}
