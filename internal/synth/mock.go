package synth

import (
	"context"
	"math"

	"github.com/papervoice/papervoice/internal/audio"
)

// mockSynth produces a deterministic WAV tone whose duration grows with the
// input text. Used by tests and dry runs; no network, no credentials.
type mockSynth struct {
	sampleRate int
	channels   int
}

// NewMock returns the offline engine.
func NewMock(sampleRate, channels int) Synthesizer {
	if sampleRate <= 0 {
		sampleRate = 22050
	}
	if channels <= 0 {
		channels = 1
	}
	return &mockSynth{sampleRate: sampleRate, channels: channels}
}

func (m *mockSynth) Speak(ctx context.Context, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	durMS := 40 + len(req.Text)/10
	frames := durMS * m.sampleRate / 1000
	clip := &audio.Clip{
		Data:       make([]int, frames*m.channels),
		SampleRate: m.sampleRate,
		Channels:   m.channels,
	}
	for i := 0; i < frames; i++ {
		sample := int(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(m.sampleRate)))
		for c := 0; c < m.channels; c++ {
			clip.Data[i*m.channels+c] = sample
		}
	}
	return audio.NewWAVCodec().Encode(ctx, clip)
}
