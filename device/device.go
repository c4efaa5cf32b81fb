// Package device plays a graph through the default audio device.
package device

import (
	"context"
	"sync"

	"github.com/gordonklaus/portaudio"

	knaster "github.com/ErikNatanael/knaster-sub000"
)

type (
	// Player drives a runner block by block and writes the rendered signal
	// to the default portaudio output device. It is the graph's audio role:
	// no other goroutine may call the runner's ProcessBlock while a play
	// is active. A player serves one play, create a new one to play again.
	Player struct {
		runner *knaster.Runner
		once   sync.Once
		buf    []float32
		out    [][]float64
		stream *portaudio.Stream
	}
)

// NewPlayer returns a player for the runner.
func NewPlayer(r *knaster.Runner) *Player {
	return &Player{runner: r}
}

// Play opens the default output device and renders until the context is
// done or the graph raises its removal flag. The graph must have no input
// channels, capture devices are not handled here.
func (p *Player) Play(ctx context.Context) error {
	if err := knaster.SingleUse(&p.once); err != nil {
		return err
	}
	channels := p.runner.Outputs()
	bs := p.runner.BlockSize()
	p.buf = make([]float32, bs*channels)
	p.out = make([][]float64, channels)
	for i := range p.out {
		p.out[i] = make([]float64, bs)
	}
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer portaudio.Terminate()
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(p.runner.SampleRate()), bs, &p.buf)
	if err != nil {
		return err
	}
	p.stream = stream
	defer p.stream.Close()
	if err = p.stream.Start(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return p.stream.Stop()
		default:
		}
		if p.runner.RemovalRaised() {
			return p.stream.Stop()
		}
		p.runner.ProcessBlock(nil, p.out)
		for i := 0; i < bs; i++ {
			for ch := 0; ch < channels; ch++ {
				p.buf[i*channels+ch] = float32(p.out[ch][i])
			}
		}
		if err = p.stream.Write(); err != nil {
			return err
		}
	}
}
