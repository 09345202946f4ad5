package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

type wavCodec struct{}

// NewWAVCodec returns the pure-Go WAV codec.
func NewWAVCodec() Codec { return wavCodec{} }

func (wavCodec) Decode(_ context.Context, data []byte) (*Clip, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil {
		return nil, fmt.Errorf("decode wav: missing format chunk")
	}
	return &Clip{
		Data:       buf.Data,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}, nil
}

// Encode writes the clip through a temp file because the wav encoder needs
// an io.WriteSeeker to patch chunk sizes on close.
func (wavCodec) Encode(_ context.Context, clip *Clip) ([]byte, error) {
	file, err := os.CreateTemp("", "papervoice_wav_*.wav")
	if err != nil {
		return nil, fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(file.Name())
	defer file.Close()

	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: clip.Channels, SampleRate: clip.SampleRate},
		Data:           clip.Data,
		SourceBitDepth: wavBitDepth,
	}
	enc := wav.NewEncoder(file, clip.SampleRate, wavBitDepth, clip.Channels, 1)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize wav: %w", err)
	}
	return os.ReadFile(file.Name())
}
