package table

import (
	"github.com/ErikNatanael/knaster-sub000/signal"
	"github.com/ErikNatanael/knaster-sub000/ugen"
)

// Player plays a table through a graph. A one-shot player renders silence
// and raises the removal flag once it runs out of frames, a looping player
// wraps around instead. The gain parameter is smoothed.
type Player struct {
	table *Table
	loop  bool
	pos   int
	done  bool

	gain      float64
	target    float64
	step      float64
	remain    int
	smoothing ugen.Smoothing
}

// NewPlayer returns a player over the table.
func NewPlayer(t *Table, loop bool) *Player {
	return &Player{table: t, loop: loop, gain: 1, target: 1}
}

func (p *Player) Init(sampleRate, blockSize int) {}

func (p *Player) Process(ctx ugen.Context, fl *ugen.Flags, in, out signal.Float64) {
	data := p.table.data
	frames := data.Size()
	for i := 0; i < ctx.BlockSize; i++ {
		if p.done {
			for ch := range out {
				out[ch][i] = 0
			}
			continue
		}
		if p.remain > 0 {
			p.gain += p.step
			p.remain--
			if p.remain == 0 {
				p.gain = p.target
			}
		}
		for ch := range out {
			out[ch][i] = data[ch][p.pos] * p.gain
		}
		p.pos++
		if p.pos == frames {
			p.pos = 0
			if !p.loop {
				p.done = true
				fl.RequestRemoval()
			}
		}
	}
}

func (p *Player) Inputs() int  { return 0 }
func (p *Player) Outputs() int { return p.table.data.NumChannels() }

func (p *Player) Params() []ugen.ParamDesc {
	return []ugen.ParamDesc{{Name: "gain", Min: 0, Max: 4, Def: 1, Hint: ugen.HintLogarithmic}}
}

func (p *Player) ApplyParam(ctx ugen.Context, index int, value float64) {
	if index != 0 {
		return
	}
	if p.smoothing.Samples <= 0 {
		p.gain = value
		p.target = value
		p.remain = 0
		return
	}
	p.target = value
	p.remain = p.smoothing.Samples
	p.step = (p.target - p.gain) / float64(p.remain)
}

// SetSmoothing implements ugen.Smoothed.
func (p *Player) SetSmoothing(index int, s ugen.Smoothing) {
	if index == 0 {
		p.smoothing = s
	}
}
