package knaster

import (
	"github.com/ErikNatanael/knaster-sub000/signal"
	"github.com/ErikNatanael/knaster-sub000/ugen"
)

// Subgraph adapts a child graph's runner into a unit generator, so a whole
// graph can run as one node of a parent. The child keeps its own control
// side: it is edited and committed independently, the parent only renders
// it. Pushing a subgraph makes the parent's Process call the single
// allowed caller of the child's ProcessBlock.
//
// The child must share the parent's sample rate and block size; on a
// mismatch the subgraph renders silence. When the child raises its removal
// flag, the subgraph raises the node removal flag on the parent.
type Subgraph struct {
	r        *Runner
	mismatch bool
}

// NewSubgraph wraps the child runner.
func NewSubgraph(r *Runner) *Subgraph {
	return &Subgraph{r: r}
}

func (s *Subgraph) Init(sampleRate, blockSize int) {
	s.mismatch = sampleRate != s.r.SampleRate() || blockSize != s.r.BlockSize()
}

func (s *Subgraph) Process(ctx ugen.Context, fl *ugen.Flags, in, out signal.Float64) {
	if s.mismatch {
		zeroBlock(out)
		return
	}
	s.r.ProcessBlock(in, out)
	if s.r.RemovalRaised() {
		fl.RequestRemoval()
	}
}

func (s *Subgraph) Inputs() int {
	return s.r.Inputs()
}

func (s *Subgraph) Outputs() int {
	return s.r.Outputs()
}

func (s *Subgraph) Params() []ugen.ParamDesc {
	return nil
}

func (s *Subgraph) ApplyParam(ctx ugen.Context, index int, value float64) {}
