package knaster_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	knaster "github.com/ErikNatanael/knaster-sub000"
	"github.com/ErikNatanael/knaster-sub000/ugen"
)

func newGraph(t *testing.T, cfg knaster.Config, options ...knaster.Option) (*knaster.Graph, *knaster.Runner) {
	t.Helper()
	g, r, err := knaster.New(cfg, options...)
	assert.Nil(t, err)
	return g, r
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		description string
		cfg         knaster.Config
	}{
		{
			description: "zero sample rate",
			cfg:         knaster.Config{BlockSize: 64, Outputs: 2},
		},
		{
			description: "zero block size",
			cfg:         knaster.Config{SampleRate: 44100, Outputs: 2},
		},
		{
			description: "negative inputs",
			cfg:         knaster.Config{SampleRate: 44100, BlockSize: 64, Inputs: -1},
		},
		{
			description: "negative outputs",
			cfg:         knaster.Config{SampleRate: 44100, BlockSize: 64, Outputs: -1},
		},
	}
	for _, test := range tests {
		t.Log(test.description)
		_, _, err := knaster.New(test.cfg)
		assert.True(t, errors.Is(err, knaster.ErrInvalidConfig))
	}

	_, _, err := knaster.New(
		knaster.Config{SampleRate: 44100, BlockSize: 64, Outputs: 1},
		knaster.WithQueueCapacity(0),
	)
	assert.True(t, errors.Is(err, knaster.ErrInvalidConfig))
	_, _, err = knaster.New(
		knaster.Config{SampleRate: 44100, BlockSize: 64, Outputs: 1},
		knaster.WithEventCapacity(-1),
	)
	assert.True(t, errors.Is(err, knaster.ErrInvalidConfig))
	_, _, err = knaster.New(
		knaster.Config{SampleRate: 44100, BlockSize: 64, Outputs: 1},
		knaster.WithPendingEvents(0),
	)
	assert.True(t, errors.Is(err, knaster.ErrInvalidConfig))
}

func TestEditErrors(t *testing.T) {
	cfg := knaster.Config{SampleRate: 44100, BlockSize: 8, Inputs: 1, Outputs: 1}
	g, _ := newGraph(t, cfg)
	other, _ := newGraph(t, cfg)

	src, err := g.Push(ugen.NewConst(1))
	assert.Nil(t, err)
	dst, err := g.Push(ugen.NewGain(1))
	assert.Nil(t, err)
	foreign, err := other.Push(ugen.NewConst(1))
	assert.Nil(t, err)

	removed, err := g.Push(ugen.NewConst(1))
	assert.Nil(t, err)
	assert.Nil(t, g.Remove(removed))

	tests := []struct {
		description string
		err         error
		expected    error
	}{
		{
			description: "connect zero id",
			err:         g.Connect(knaster.NodeID{}, 0, dst, 0),
			expected:    knaster.ErrNodeNotFound,
		},
		{
			description: "connect removed id",
			err:         g.Connect(removed, 0, dst, 0),
			expected:    knaster.ErrNodeNotFound,
		},
		{
			description: "connect foreign id",
			err:         g.Connect(foreign, 0, dst, 0),
			expected:    knaster.ErrWrongGraph,
		},
		{
			description: "connect output out of range",
			err:         g.Connect(src, 1, dst, 0),
			expected:    knaster.ErrOutputOutOfRange,
		},
		{
			description: "connect input out of range",
			err:         g.Connect(src, 0, dst, 1),
			expected:    knaster.ErrInputOutOfRange,
		},
		{
			description: "connect negative input",
			err:         g.Connect(src, 0, dst, -1),
			expected:    knaster.ErrInputOutOfRange,
		},
		{
			description: "graph input channel out of range",
			err:         g.ConnectInput(1, dst, 0),
			expected:    knaster.ErrGraphInputOutOfRange,
		},
		{
			description: "graph output channel out of range",
			err:         g.ConnectOutput(src, 0, 1),
			expected:    knaster.ErrGraphOutputOutOfRange,
		},
		{
			description: "through input out of range",
			err:         g.ConnectThrough(-1, 0),
			expected:    knaster.ErrGraphInputOutOfRange,
		},
		{
			description: "through output out of range",
			err:         g.ConnectThrough(0, 2),
			expected:    knaster.ErrGraphOutputOutOfRange,
		},
		{
			description: "param edge out of range",
			err:         g.ConnectParam(src, 0, dst, 1),
			expected:    knaster.ErrParamOutOfRange,
		},
		{
			description: "param edge on node without audio-rate support",
			err:         g.ConnectParam(dst, 0, src, 0),
			expected:    knaster.ErrAudioRateUnsupported,
		},
		{
			description: "schedule unknown param",
			err:         g.Schedule(dst, "cutoff", knaster.Value(1)),
			expected:    knaster.ErrParamNotFound,
		},
		{
			description: "schedule param index out of range",
			err:         g.ScheduleIndex(dst, 3, knaster.Value(1)),
			expected:    knaster.ErrParamOutOfRange,
		},
		{
			description: "schedule without change",
			err:         g.Schedule(dst, "gain"),
			expected:    knaster.ErrNoChange,
		},
		{
			description: "smoothing on node without smoothing support",
			err:         g.Schedule(src, "value", knaster.WithSmoothing(ugen.Smoothing{Samples: 4})),
			expected:    knaster.ErrSmoothingUnsupported,
		},
		{
			description: "disconnect input out of range",
			err:         g.DisconnectInput(dst, 2),
			expected:    knaster.ErrInputOutOfRange,
		},
		{
			description: "disconnect param out of range",
			err:         g.DisconnectParam(dst, -1),
			expected:    knaster.ErrParamOutOfRange,
		},
		{
			description: "disconnect graph output out of range",
			err:         g.DisconnectGraphOutput(1),
			expected:    knaster.ErrGraphOutputOutOfRange,
		},
		{
			description: "remove foreign id",
			err:         g.Remove(foreign),
			expected:    knaster.ErrWrongGraph,
		},
	}
	for _, test := range tests {
		t.Log(test.description)
		assert.True(t, errors.Is(test.err, test.expected))
	}
}

func TestImmortalNode(t *testing.T) {
	g, _ := newGraph(t, knaster.Config{SampleRate: 44100, BlockSize: 8, Outputs: 1})
	id, err := g.Push(ugen.NewConst(1))
	assert.Nil(t, err)

	assert.Nil(t, g.SetMortality(id, true))
	err = g.Remove(id)
	assert.True(t, errors.Is(err, knaster.ErrImmortalNode))

	assert.Nil(t, g.SetMortality(id, false))
	assert.Nil(t, g.Remove(id))
}

func TestAdditiveConnect(t *testing.T) {
	g, _ := newGraph(t, knaster.Config{SampleRate: 44100, BlockSize: 8, Outputs: 1})
	a, _ := g.Push(ugen.NewConst(0.1))
	b, _ := g.Push(ugen.NewConst(0.2))
	c, _ := g.Push(ugen.NewConst(0.3))
	dst, _ := g.Push(ugen.NewGain(1))

	assert.Nil(t, g.Connect(a, 0, dst, 0))
	assert.Nil(t, g.Connect(b, 0, dst, 0))

	insp := g.Inspect()
	// a, b, c, dst plus one implicit adder
	assert.Equal(t, 5, len(insp.Nodes))
	var dstInfo, adder knaster.NodeInfo
	for _, ni := range insp.Nodes {
		if ni.ID == dst {
			dstInfo = ni
		}
		if ni.Implicit {
			adder = ni
		}
	}
	// the slot holds exactly one edge and it points at the adder
	assert.Equal(t, 1, len(dstInfo.In))
	assert.True(t, dstInfo.In[0].Source == adder.ID)
	assert.Equal(t, 2, len(adder.In))
	assert.True(t, adder.In[0].Source == a)
	assert.True(t, adder.In[1].Source == b)

	// a third source chains another adder
	assert.Nil(t, g.Connect(c, 0, dst, 0))
	insp = g.Inspect()
	assert.Equal(t, 6, len(insp.Nodes))
	implicit := 0
	for _, ni := range insp.Nodes {
		if ni.Implicit {
			implicit++
		}
	}
	assert.Equal(t, 2, implicit)

	// replace drops everything in the slot
	assert.Nil(t, g.ConnectReplace(a, 0, dst, 0))
	insp = g.Inspect()
	for _, ni := range insp.Nodes {
		if ni.ID == dst {
			assert.True(t, ni.In[0].Source == a)
		}
	}
}

func TestAdditiveGraphOutput(t *testing.T) {
	g, _ := newGraph(t, knaster.Config{SampleRate: 44100, BlockSize: 8, Outputs: 1})
	a, _ := g.Push(ugen.NewConst(0.75))
	b, _ := g.Push(ugen.NewConst(0.5))

	assert.Nil(t, g.ConnectOutput(a, 0, 0))
	assert.Nil(t, g.ConnectOutput(b, 0, 0))

	insp := g.Inspect()
	assert.Equal(t, 3, len(insp.Nodes))
	assert.Equal(t, 1, len(insp.Outputs))
	assert.True(t, !insp.Outputs[0].Empty)
	for _, ni := range insp.Nodes {
		if ni.Implicit {
			assert.True(t, insp.Outputs[0].Source == ni.ID)
		}
	}
}

func TestRemoveClearsEdges(t *testing.T) {
	g, _ := newGraph(t, knaster.Config{SampleRate: 44100, BlockSize: 8, Outputs: 1})
	src, _ := g.Push(ugen.NewConst(1))
	dst, _ := g.Push(ugen.NewBias(0))
	assert.Nil(t, g.Connect(src, 0, dst, 0))
	assert.Nil(t, g.ConnectOutput(src, 0, 0))

	assert.Nil(t, g.Remove(src))
	insp := g.Inspect()
	assert.Equal(t, 1, len(insp.Nodes))
	assert.True(t, insp.Nodes[0].In[0].Empty)
	assert.True(t, insp.Outputs[0].Empty)
}

func TestCycleRejected(t *testing.T) {
	g, r := newGraph(t, knaster.Config{SampleRate: 44100, BlockSize: 4, Outputs: 1})
	a, _ := g.Push(ugen.NewBias(0.5))
	b, _ := g.Push(ugen.NewBias(0.25))
	assert.Nil(t, g.Connect(a, 0, b, 0))
	assert.Nil(t, g.Connect(b, 0, a, 0))
	assert.Nil(t, g.ConnectOutput(a, 0, 0))

	// the edges are each valid alone, only the commit can see the loop
	err := g.Commit()
	assert.True(t, errors.Is(err, knaster.ErrCycle))

	// closing the loop with a feedback edge makes the graph schedulable
	assert.Nil(t, g.ConnectFeedbackReplace(b, 0, a, 0))
	assert.Nil(t, g.Commit())
	out := block(1, 4)
	r.ProcessBlock(nil, out)
	assertLevel(t, out, 0.5)
	r.ProcessBlock(nil, out)
	assertLevel(t, out, 1.25)
}

func TestParamEdgeCycleRejected(t *testing.T) {
	g, _ := newGraph(t, knaster.Config{SampleRate: 44100, BlockSize: 4, Outputs: 1})
	a, _ := g.Push(ugen.NewGain(1))
	b, _ := g.Push(ugen.NewGain(1))
	assert.Nil(t, g.Connect(a, 0, b, 0))
	assert.Nil(t, g.ConnectParam(b, 0, a, 0))
	assert.Nil(t, g.ConnectOutput(b, 0, 0))

	err := g.Commit()
	assert.True(t, errors.Is(err, knaster.ErrCycle))
}

func TestFeedbackEdgeInspection(t *testing.T) {
	g, _ := newGraph(t, knaster.Config{SampleRate: 44100, BlockSize: 8, Outputs: 1})
	a, _ := g.Push(ugen.NewBias(1))
	assert.Nil(t, g.ConnectFeedback(a, 0, a, 0))

	insp := g.Inspect()
	assert.Equal(t, 1, len(insp.Nodes))
	assert.True(t, insp.Nodes[0].In[0].Feedback)
	assert.True(t, insp.Nodes[0].In[0].Source == a)
}

func TestParamIndex(t *testing.T) {
	g, _ := newGraph(t, knaster.Config{SampleRate: 44100, BlockSize: 8, Outputs: 1})
	id, _ := g.Push(ugen.NewSine(440, 1))

	i, err := g.ParamIndex(id, "freq")
	assert.Nil(t, err)
	assert.Equal(t, 0, i)
	i, err = g.ParamIndex(id, "amp")
	assert.Nil(t, err)
	assert.Equal(t, 1, i)
	_, err = g.ParamIndex(id, "phase")
	assert.True(t, errors.Is(err, knaster.ErrParamNotFound))
}

func TestClose(t *testing.T) {
	g, _ := newGraph(t, knaster.Config{SampleRate: 44100, BlockSize: 8, Outputs: 1})
	id, _ := g.Push(ugen.NewConst(1))
	assert.Nil(t, g.Close())

	assert.True(t, errors.Is(g.Close(), knaster.ErrClosed))
	_, err := g.Push(ugen.NewConst(1))
	assert.True(t, errors.Is(err, knaster.ErrClosed))
	assert.True(t, errors.Is(g.Commit(), knaster.ErrClosed))
	assert.True(t, errors.Is(g.Remove(id), knaster.ErrClosed))
	assert.True(t, errors.Is(g.Schedule(id, "value", knaster.Value(1)), knaster.ErrClosed))
	assert.True(t, errors.Is(g.RequestRemoval(0), knaster.ErrClosed))
}

func TestSingleUse(t *testing.T) {
	var once sync.Once
	assert.Nil(t, knaster.SingleUse(&once))
	assert.True(t, errors.Is(knaster.SingleUse(&once), knaster.ErrSingleUseReused))
}
