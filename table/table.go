// Package table keeps whole recordings in memory and plays them back
// through a graph.
package table

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	knaster "github.com/ErikNatanael/knaster-sub000"
	"github.com/ErikNatanael/knaster-sub000/signal"
)

// loadChunk is the number of frames decoded per read.
const loadChunk = 1024

// ErrUnsupportedBitDepth is returned when a file uses a bit depth the
// loader does not read.
var ErrUnsupportedBitDepth = errors.New("only 16 and 32 bit depth is supported")

type (
	// Table is an in-memory recording. Once loaded it never changes, one
	// table can feed any number of players.
	Table struct {
		data       signal.Float64
		sampleRate int
	}

	// Capture is a render target that keeps the bounced blocks in a table
	// instead of a file. Single use.
	Capture struct {
		table Table
		once  sync.Once
	}
)

// Load reads a whole wav file into a table.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%v is not a valid wav file", path)
	}
	bitDepth := signal.BitDepth(d.BitDepth)
	if bitDepth != signal.BitDepth16 && bitDepth != signal.BitDepth32 {
		return nil, ErrUnsupportedBitDepth
	}

	numChannels := d.Format().NumChannels
	ib := &audio.IntBuffer{
		Format:         d.Format(),
		Data:           make([]int, loadChunk*numChannels),
		SourceBitDepth: int(d.BitDepth),
	}
	t := Table{sampleRate: int(d.SampleRate)}
	for {
		read, err := d.PCMBuffer(ib)
		if err != nil {
			return nil, err
		}
		if read == 0 {
			break
		}
		t.data = t.data.Append(signal.InterInt{
			Data:        ib.Data[:read],
			NumChannels: numChannels,
			BitDepth:    bitDepth,
		}.AsFloat64())
	}
	if t.data.Size() == 0 {
		return nil, fmt.Errorf("%v holds no samples", path)
	}
	return &t, nil
}

// NumChannels returns the number of channels.
func (t *Table) NumChannels() int {
	return t.data.NumChannels()
}

// Frames returns the number of frames per channel.
func (t *Table) Frames() int {
	return t.data.Size()
}

// SampleRate returns the rate the recording was made at. Players do not
// resample, playback runs at the graph rate.
func (t *Table) SampleRate() int {
	return t.sampleRate
}

// Slice returns a copy of up to length frames starting at start.
func (t *Table) Slice(start, length int) signal.Float64 {
	return t.data.Slice(start, length)
}

// Open implements render.Target.
func (c *Capture) Open(sampleRate, numChannels int) error {
	if err := knaster.SingleUse(&c.once); err != nil {
		return err
	}
	c.table.sampleRate = sampleRate
	return nil
}

// Write appends the block to the table.
func (c *Capture) Write(b signal.Float64) error {
	c.table.data = c.table.data.Append(b)
	return nil
}

// Flush implements render.Target.
func (c *Capture) Flush() error {
	return nil
}

// Table returns the captured recording.
func (c *Capture) Table() *Table {
	return &c.table
}
