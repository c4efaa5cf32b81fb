package render

import (
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	knaster "github.com/ErikNatanael/knaster-sub000"
	"github.com/ErikNatanael/knaster-sub000/signal"
)

// wavAudioFormat is PCM.
const wavAudioFormat = 1

// WAV writes rendered blocks to a wav file. Single use.
type WAV struct {
	path     string
	bitDepth signal.BitDepth
	file     *os.File
	encoder  *wav.Encoder
	ib       *audio.IntBuffer
	once     sync.Once
}

// NewWAV returns a wav target for the path.
func NewWAV(path string, bitDepth signal.BitDepth) *WAV {
	return &WAV{
		path:     path,
		bitDepth: bitDepth,
	}
}

// Open creates the file and the encoder.
func (w *WAV) Open(sampleRate, numChannels int) error {
	if err := knaster.SingleUse(&w.once); err != nil {
		return err
	}
	f, err := os.Create(w.path)
	if err != nil {
		return err
	}
	w.file = f
	w.encoder = wav.NewEncoder(f, sampleRate, int(w.bitDepth), numChannels, wavAudioFormat)
	w.ib = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: int(w.bitDepth),
	}
	return nil
}

// Write interleaves the block and hands it to the encoder.
func (w *WAV) Write(b signal.Float64) error {
	w.ib.Data = b.AsInterInt(w.bitDepth)
	return w.encoder.Write(w.ib)
}

// Flush finalizes the wav header and closes the file.
func (w *WAV) Flush() error {
	if w.encoder == nil {
		return nil
	}
	if err := w.encoder.Close(); err != nil {
		return err
	}
	return w.file.Close()
}
