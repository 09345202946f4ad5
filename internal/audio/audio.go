// Package audio provides the codec collaborator used by the merger: decode
// container bytes to PCM clips, append clips, generate silence, and encode
// the result back to a container.
package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/papervoice/papervoice/internal/fault"
)

// Clip is a buffer of 16-bit PCM samples. Data is interleaved when
// Channels > 1.
type Clip struct {
	Data       []int
	SampleRate int
	Channels   int
}

// Codec turns container bytes into clips and back.
type Codec interface {
	Decode(ctx context.Context, data []byte) (*Clip, error)
	Encode(ctx context.Context, clip *Clip) ([]byte, error)
}

// Options configures codec construction.
type Options struct {
	// FFmpegBin is the ffmpeg binary used by compressed formats.
	FFmpegBin string
	// SampleRate and Channels fix the PCM format compressed input is
	// decoded to, so clips from heterogeneous parts stay appendable.
	SampleRate int
	Channels   int
}

func (o Options) withDefaults() Options {
	if o.FFmpegBin == "" {
		o.FFmpegBin = "ffmpeg"
	}
	if o.SampleRate <= 0 {
		o.SampleRate = 24000
	}
	if o.Channels <= 0 {
		o.Channels = 1
	}
	return o
}

// ForFormat returns the codec for an artifact format ("wav", "mp3").
func ForFormat(format string, opts Options) (Codec, error) {
	opts = opts.withDefaults()
	switch format {
	case "wav":
		return NewWAVCodec(), nil
	case "mp3":
		return NewFFmpegCodec("mp3", opts), nil
	default:
		return nil, fault.Validation("audio", fmt.Sprintf("no codec for format %q", format))
	}
}

// Silence returns a clip of zero samples lasting d.
func Silence(d time.Duration, sampleRate, channels int) *Clip {
	frames := int(d.Milliseconds()) * sampleRate / 1000
	return &Clip{
		Data:       make([]int, frames*channels),
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// Append concatenates other onto c. Formats must already agree; the merger
// decodes everything through one codec so mismatches indicate caller error.
func (c *Clip) Append(other *Clip) error {
	if other == nil || len(other.Data) == 0 {
		return nil
	}
	if len(c.Data) == 0 {
		c.SampleRate = other.SampleRate
		c.Channels = other.Channels
	}
	if c.SampleRate != other.SampleRate || c.Channels != other.Channels {
		return fault.Validation("audio", fmt.Sprintf(
			"cannot append %dHz/%dch onto %dHz/%dch", other.SampleRate, other.Channels, c.SampleRate, c.Channels))
	}
	c.Data = append(c.Data, other.Data...)
	return nil
}

// Duration reports clip length by frame count.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	frames := len(c.Data) / c.Channels
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}
