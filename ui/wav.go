package ui

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WavRecorder collects samples in memory and writes them as a 16 bit mono
// WAV file on Close.
type WavRecorder struct {
	filename   string
	sampleRate int
	samples    []int
}

func NewWavRecorder(filename string, sampleRate float64) *WavRecorder {
	return &WavRecorder{filename: filename, sampleRate: int(sampleRate)}
}

// Sink takes APU samples in [0, 1).
func (wr *WavRecorder) Sink(sample float32) {
	// centre the mixer output and scale it to 16 bits
	v := int((sample*2 - 1) * 32767)
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	wr.samples = append(wr.samples, v)
}

func (wr *WavRecorder) Len() int {
	return len(wr.samples)
}

func (wr *WavRecorder) Close() (rerr error) {
	f, err := os.Create(wr.filename)
	if err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("wav: %w", err)
		}
	}()

	enc := wav.NewEncoder(f, wr.sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: wr.sampleRate},
		Data:           wr.samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return nil
}
