// Package ugen defines the unit-generator contract the graph engine drives
// and ships the elementary generators the engine itself relies on.
package ugen

import (
	"sync/atomic"
	"time"

	"github.com/ErikNatanael/knaster-sub000/signal"
)

type (
	// Context carries the per-block execution state a generator may read.
	Context struct {
		SampleRate int
		BlockSize  int
		// Frame is the absolute index of the first sample in the block.
		Frame uint64
	}

	// UGen is one unit generator with fixed input, output and parameter
	// counts. The engine wires instances into a graph and drives them once
	// per block.
	UGen interface {
		// Init prepares the generator for the given rates. Called once on
		// the control side before the generator processes any block.
		Init(sampleRate, blockSize int)
		// Process renders one block. in holds one channel per input slot and
		// is read-only, the slices may be shared with other generators. out
		// holds one channel per output slot and is exclusive for the block.
		// Process must not allocate, lock or block.
		Process(ctx Context, fl *Flags, in, out signal.Float64)
		Inputs() int
		Outputs() int
		Params() []ParamDesc
		// ApplyParam sets a control-rate parameter value. Runs on the audio
		// side between blocks, under the same constraints as Process.
		ApplyParam(ctx Context, index int, value float64)
	}

	// ParamDesc describes one parameter. Min and Max are advisory ranges for
	// hosts, the engine never clamps.
	ParamDesc struct {
		Name     string
		Min, Max float64
		Def      float64
		Hint     Hint
	}

	// Hint suggests how a host scales a parameter control.
	Hint int

	// Smoothing configures how value changes reach the signal. The zero
	// value applies changes instantly.
	Smoothing struct {
		// Samples is the length of the linear ramp towards a new value.
		Samples int
	}

	// AudioRate is implemented by generators whose parameters can follow a
	// per-sample signal. Binding nil returns the parameter to its
	// control-rate value.
	AudioRate interface {
		BindParam(index int, buf []float64)
	}

	// Smoothed is implemented by generators with adjustable parameter
	// smoothing.
	Smoothed interface {
		SetSmoothing(index int, s Smoothing)
	}

	// Flusher is implemented by generators holding external resources. Flush
	// is called on the control side when the node is physically destroyed.
	Flusher interface {
		Flush() error
	}

	// Flags is the mailbox a generator raises signals on during Process. The
	// engine reads raised flags after every block.
	Flags struct {
		removal atomic.Bool
	}
)

const (
	// HintNone leaves the scale to the host.
	HintNone Hint = iota
	// HintLinear suggests a linear control scale.
	HintLinear
	// HintLogarithmic suggests a logarithmic control scale, typical for
	// frequencies and gains.
	HintLogarithmic
)

// RequestRemoval asks the control side to remove this generator's node. The
// node keeps processing until the removal is committed.
func (f *Flags) RequestRemoval() {
	f.removal.Store(true)
}

// RemovalRequested reports whether removal was requested.
func (f *Flags) RemovalRequested() bool {
	return f.removal.Load()
}

// Ramp returns a linear smoothing ramp of the given duration.
func Ramp(d time.Duration, sampleRate int) Smoothing {
	return Smoothing{Samples: int(d.Seconds() * float64(sampleRate))}
}
