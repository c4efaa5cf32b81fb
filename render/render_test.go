package render_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	knaster "github.com/ErikNatanael/knaster-sub000"
	"github.com/ErikNatanael/knaster-sub000/render"
	"github.com/ErikNatanael/knaster-sub000/signal"
	"github.com/ErikNatanael/knaster-sub000/ugen"
)

func constGraph(t *testing.T, channels int, value float64) *knaster.Runner {
	t.Helper()
	g, r, err := knaster.New(knaster.Config{
		SampleRate: 44100,
		BlockSize:  8,
		Outputs:    channels,
	})
	assert.Nil(t, err)
	for ch := 0; ch < channels; ch++ {
		id, err := g.Push(ugen.NewConst(value))
		assert.Nil(t, err)
		assert.Nil(t, g.ConnectOutput(id, 0, ch))
	}
	assert.Nil(t, g.Commit())
	return r
}

func decode(t *testing.T, path string) (*wav.Decoder, signal.Float64) {
	t.Helper()
	f, err := os.Open(path)
	assert.Nil(t, err)
	defer f.Close()
	d := wav.NewDecoder(f)
	assert.True(t, d.IsValidFile())
	ib := &audio.IntBuffer{
		Format:         d.Format(),
		Data:           make([]int, 4096),
		SourceBitDepth: int(d.BitDepth),
	}
	var data signal.Float64
	for {
		read, err := d.PCMBuffer(ib)
		assert.Nil(t, err)
		if read == 0 {
			break
		}
		chunk := signal.InterInt{
			Data:        ib.Data[:read],
			NumChannels: d.Format().NumChannels,
			BitDepth:    signal.BitDepth(d.BitDepth),
		}.AsFloat64()
		data = data.Append(chunk)
	}
	return d, data
}

func TestBounceWAV(t *testing.T) {
	tests := []struct {
		description string
		channels    int
		value       float64
		blocks      int
	}{
		{
			description: "mono",
			channels:    1,
			value:       0.5,
			blocks:      4,
		},
		{
			description: "stereo",
			channels:    2,
			value:       -0.25,
			blocks:      3,
		},
	}
	for _, test := range tests {
		t.Log(test.description)
		r := constGraph(t, test.channels, test.value)
		path := filepath.Join(t.TempDir(), "out.wav")
		w := render.NewWAV(path, signal.BitDepth16)

		err := render.Bounce(context.Background(), r, w, test.blocks)
		assert.Nil(t, err)

		d, data := decode(t, path)
		assert.Equal(t, 44100, int(d.SampleRate))
		assert.Equal(t, test.channels, data.NumChannels())
		assert.Equal(t, test.blocks*8, data.Size())
		for ch := range data {
			for i := range data[ch] {
				assert.InDelta(t, test.value, data[ch][i], 1e-3)
			}
		}
	}
}

func TestBounceStopsOnRemoval(t *testing.T) {
	g, r, err := knaster.New(knaster.Config{SampleRate: 44100, BlockSize: 8, Outputs: 1})
	assert.Nil(t, err)
	id, err := g.Push(ugen.NewConst(0.5))
	assert.Nil(t, err)
	assert.Nil(t, g.ConnectOutput(id, 0, 0))
	assert.Nil(t, g.Commit())
	// the whole second block renders silent and raises the flag
	assert.Nil(t, g.RequestRemoval(8))

	path := filepath.Join(t.TempDir(), "out.wav")
	err = render.Bounce(context.Background(), r, render.NewWAV(path, signal.BitDepth16), 100)
	assert.Nil(t, err)

	_, data := decode(t, path)
	assert.Equal(t, 16, data.Size())
}

func TestBounceSingleUse(t *testing.T) {
	r := constGraph(t, 1, 0.5)
	path := filepath.Join(t.TempDir(), "out.wav")
	w := render.NewWAV(path, signal.BitDepth16)
	assert.Nil(t, render.Bounce(context.Background(), r, w, 1))
	err := render.Bounce(context.Background(), r, w, 1)
	assert.True(t, err == knaster.ErrSingleUseReused)
}

func TestBounceAll(t *testing.T) {
	dir := t.TempDir()
	r1 := constGraph(t, 1, 0.25)
	r2 := constGraph(t, 2, 0.5)
	path1 := filepath.Join(dir, "one.wav")
	path2 := filepath.Join(dir, "two.wav")

	err := render.BounceAll(
		context.Background(),
		5,
		render.Pair{Runner: r1, Target: render.NewWAV(path1, signal.BitDepth16)},
		render.Pair{Runner: r2, Target: render.NewWAV(path2, signal.BitDepth16)},
	)
	assert.Nil(t, err)

	_, data1 := decode(t, path1)
	_, data2 := decode(t, path2)
	assert.Equal(t, 40, data1.Size())
	assert.Equal(t, 1, data1.NumChannels())
	assert.Equal(t, 40, data2.Size())
	assert.Equal(t, 2, data2.NumChannels())
	goleak.VerifyNoLeaks(t)
}
