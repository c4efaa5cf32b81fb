package ugen

import (
	"math"

	"github.com/ErikNatanael/knaster-sub000/signal"
)

type (
	// Const emits a constant value on its single output.
	Const struct {
		value float64
	}

	// Add sums its two inputs into its single output. The engine inserts it
	// implicitly when a second source is connected to an occupied slot.
	Add struct{}

	// Bias adds a constant offset to its single input.
	Bias struct {
		offset float64
	}

	// Gain scales its single input. The gain parameter is smoothed and can
	// be bound to an audio-rate signal.
	Gain struct {
		gain      float64
		target    float64
		step      float64
		remain    int
		smoothing Smoothing
		buf       []float64
	}

	// Sine is a sine oscillator with frequency and amplitude parameters. The
	// frequency can be bound to an audio-rate signal.
	Sine struct {
		freq       float64
		amp        float64
		phase      float64
		sampleRate int
		fbuf       []float64
	}

	// Pass copies its single input to its single output.
	Pass struct{}
)

// NewConst returns a constant source emitting v.
func NewConst(v float64) *Const {
	return &Const{value: v}
}

func (c *Const) Init(sampleRate, blockSize int) {}

func (c *Const) Process(ctx Context, fl *Flags, in, out signal.Float64) {
	o := out[0]
	for i := range o {
		o[i] = c.value
	}
}

func (c *Const) Inputs() int  { return 0 }
func (c *Const) Outputs() int { return 1 }

func (c *Const) Params() []ParamDesc {
	return []ParamDesc{{Name: "value", Min: -10, Max: 10, Def: 0, Hint: HintLinear}}
}

func (c *Const) ApplyParam(ctx Context, index int, value float64) {
	if index == 0 {
		c.value = value
	}
}

// NewAdd returns a two-input adder.
func NewAdd() *Add {
	return &Add{}
}

func (a *Add) Init(sampleRate, blockSize int) {}

func (a *Add) Process(ctx Context, fl *Flags, in, out signal.Float64) {
	l, r, o := in[0], in[1], out[0]
	for i := range o {
		o[i] = l[i] + r[i]
	}
}

func (a *Add) Inputs() int         { return 2 }
func (a *Add) Outputs() int        { return 1 }
func (a *Add) Params() []ParamDesc { return nil }

func (a *Add) ApplyParam(ctx Context, index int, value float64) {}

// NewBias returns a source biasing its input by offset.
func NewBias(offset float64) *Bias {
	return &Bias{offset: offset}
}

func (b *Bias) Init(sampleRate, blockSize int) {}

func (b *Bias) Process(ctx Context, fl *Flags, in, out signal.Float64) {
	src, o := in[0], out[0]
	for i := range o {
		o[i] = src[i] + b.offset
	}
}

func (b *Bias) Inputs() int  { return 1 }
func (b *Bias) Outputs() int { return 1 }

func (b *Bias) Params() []ParamDesc {
	return []ParamDesc{{Name: "offset", Min: -10, Max: 10, Def: 0, Hint: HintLinear}}
}

func (b *Bias) ApplyParam(ctx Context, index int, value float64) {
	if index == 0 {
		b.offset = value
	}
}

// NewGain returns an amplifier with the given initial gain.
func NewGain(gain float64) *Gain {
	return &Gain{gain: gain, target: gain}
}

func (g *Gain) Init(sampleRate, blockSize int) {}

func (g *Gain) Process(ctx Context, fl *Flags, in, out signal.Float64) {
	src, o := in[0], out[0]
	if g.buf != nil {
		for i := range o {
			o[i] = src[i] * g.buf[i]
		}
		return
	}
	for i := range o {
		if g.remain > 0 {
			g.gain += g.step
			g.remain--
			if g.remain == 0 {
				g.gain = g.target
			}
		}
		o[i] = src[i] * g.gain
	}
}

func (g *Gain) Inputs() int  { return 1 }
func (g *Gain) Outputs() int { return 1 }

func (g *Gain) Params() []ParamDesc {
	return []ParamDesc{{Name: "gain", Min: 0, Max: 4, Def: 1, Hint: HintLogarithmic}}
}

func (g *Gain) ApplyParam(ctx Context, index int, value float64) {
	if index != 0 {
		return
	}
	if g.smoothing.Samples <= 0 {
		g.gain = value
		g.target = value
		g.remain = 0
		return
	}
	g.target = value
	g.remain = g.smoothing.Samples
	g.step = (g.target - g.gain) / float64(g.remain)
}

// SetSmoothing implements Smoothed.
func (g *Gain) SetSmoothing(index int, s Smoothing) {
	if index == 0 {
		g.smoothing = s
	}
}

// BindParam implements AudioRate for the gain parameter.
func (g *Gain) BindParam(index int, buf []float64) {
	if index == 0 {
		g.buf = buf
	}
}

// NewSine returns a sine oscillator.
func NewSine(freq, amp float64) *Sine {
	return &Sine{freq: freq, amp: amp}
}

func (s *Sine) Init(sampleRate, blockSize int) {
	s.sampleRate = sampleRate
}

func (s *Sine) Process(ctx Context, fl *Flags, in, out signal.Float64) {
	o := out[0]
	step := 2 * math.Pi / float64(s.sampleRate)
	for i := range o {
		o[i] = s.amp * math.Sin(s.phase)
		f := s.freq
		if s.fbuf != nil {
			f = s.fbuf[i]
		}
		s.phase += f * step
		if s.phase > 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
}

func (s *Sine) Inputs() int  { return 0 }
func (s *Sine) Outputs() int { return 1 }

func (s *Sine) Params() []ParamDesc {
	return []ParamDesc{
		{Name: "freq", Min: 0, Max: 20000, Def: 440, Hint: HintLogarithmic},
		{Name: "amp", Min: 0, Max: 1, Def: 1, Hint: HintLinear},
	}
}

func (s *Sine) ApplyParam(ctx Context, index int, value float64) {
	switch index {
	case 0:
		s.freq = value
	case 1:
		s.amp = value
	}
}

// BindParam implements AudioRate for the frequency parameter.
func (s *Sine) BindParam(index int, buf []float64) {
	if index == 0 {
		s.fbuf = buf
	}
}

// NewPass returns a passthrough.
func NewPass() *Pass {
	return &Pass{}
}

func (p *Pass) Init(sampleRate, blockSize int) {}

func (p *Pass) Process(ctx Context, fl *Flags, in, out signal.Float64) {
	copy(out[0], in[0])
}

func (p *Pass) Inputs() int         { return 1 }
func (p *Pass) Outputs() int        { return 1 }
func (p *Pass) Params() []ParamDesc { return nil }

func (p *Pass) ApplyParam(ctx Context, index int, value float64) {}
