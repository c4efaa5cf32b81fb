package knaster

import (
	"github.com/ErikNatanael/knaster-sub000/signal"
	"github.com/ErikNatanael/knaster-sub000/ugen"
)

type (
	// task executes one node against buffers resolved at compile time.
	task struct {
		u   ugen.UGen
		fl  *ugen.Flags
		in  signal.Float64
		out signal.Float64
	}

	// outputWire names what feeds one graph output channel.
	outputWire struct {
		// src is the resolved node channel, nil when the channel is silent
		// or passes a graph input through.
		src []float64
		// fromInput is the graph input channel copied through, -1 otherwise.
		fromInput int
	}

	// paramBinding attaches a resolved source channel to an audio-rate
	// parameter for the lifetime of one generation.
	paramBinding struct {
		ar    ugen.AudioRate
		index int
		src   []float64
	}

	// delayCopy snapshots a feedback source after all tasks ran, so that
	// its readers see the previous block's samples no matter where the
	// source landed in the order.
	delayCopy struct {
		src []float64
		dst []float64
	}

	// generation is one immutable compiled plan. The audio role executes
	// it as data; nothing flows back except the epoch publication on
	// install and the plan itself once retired.
	generation struct {
		epoch    uint64
		tasks    []task
		wires    []outputWire
		bindings []paramBinding
		delays   []delayCopy
		// inputSlot is the arena home the caller's input block is copied
		// into before the tasks run. Nil when the graph has no inputs.
		inputSlot signal.Float64
	}
)
