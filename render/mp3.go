package render

import (
	"bytes"
	"encoding/binary"
	"os"
	"sync"

	"github.com/viert/lame"

	knaster "github.com/ErikNatanael/knaster-sub000"
	"github.com/ErikNatanael/knaster-sub000/signal"
)

// MP3 writes rendered blocks to an mp3 file. Single use.
type MP3 struct {
	path    string
	bitRate int
	quality int
	file    *os.File
	wr      *lame.LameWriter
	once    sync.Once
}

// NewMP3 returns an mp3 target for the path.
func NewMP3(path string, bitRate, quality int) *MP3 {
	return &MP3{
		path:    path,
		bitRate: bitRate,
		quality: quality,
	}
}

// Open creates the file and initializes the encoder.
func (m *MP3) Open(sampleRate, numChannels int) error {
	if err := knaster.SingleUse(&m.once); err != nil {
		return err
	}
	f, err := os.Create(m.path)
	if err != nil {
		return err
	}
	m.file = f
	m.wr = lame.NewWriter(f)
	m.wr.Encoder.SetBitrate(m.bitRate)
	m.wr.Encoder.SetQuality(m.quality)
	m.wr.Encoder.SetNumChannels(numChannels)
	m.wr.Encoder.SetInSamplerate(sampleRate)
	m.wr.Encoder.SetMode(lame.JOINT_STEREO)
	m.wr.Encoder.SetVBR(lame.VBR_RH)
	m.wr.Encoder.InitParams()
	return nil
}

// Write interleaves the block as 16 bit pcm and hands it to the encoder.
func (m *MP3) Write(b signal.Float64) error {
	buf := new(bytes.Buffer)
	ints := b.AsInterInt(signal.BitDepth16)
	for i := range ints {
		if err := binary.Write(buf, binary.LittleEndian, int16(ints[i])); err != nil {
			return err
		}
	}
	_, err := m.wr.Write(buf.Bytes())
	return err
}

// Flush drains the encoder and closes the file.
func (m *MP3) Flush() error {
	if m.wr == nil {
		return nil
	}
	if err := m.wr.Close(); err != nil {
		return err
	}
	return m.file.Close()
}
