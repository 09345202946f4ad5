package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ffmpegCodec shells out to ffmpeg over pipes for compressed formats the
// pure-Go path cannot encode (mp3). Decoding always resamples to the
// configured PCM format so clips from mixed sources stay appendable.
type ffmpegCodec struct {
	bin    string
	format string
	opts   Options
}

// NewFFmpegCodec returns a codec for the given container format backed by
// an external ffmpeg binary.
func NewFFmpegCodec(format string, opts Options) Codec {
	return &ffmpegCodec{bin: opts.withDefaults().FFmpegBin, format: format, opts: opts.withDefaults()}
}

func (f *ffmpegCodec) Decode(ctx context.Context, data []byte) (*Clip, error) {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le", "-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(f.opts.SampleRate),
		"-ac", strconv.Itoa(f.opts.Channels),
		"pipe:1",
	}
	raw, err := f.run(ctx, args, data)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", f.format, err)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("ffmpeg decode %s: pcm output not 16-bit aligned", f.format)
	}
	samples := make([]int, len(raw)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}
	return &Clip{Data: samples, SampleRate: f.opts.SampleRate, Channels: f.opts.Channels}, nil
}

func (f *ffmpegCodec) Encode(ctx context.Context, clip *Clip) ([]byte, error) {
	raw := make([]byte, len(clip.Data)*2)
	for i, s := range clip.Data {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(s)))
	}
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(clip.SampleRate),
		"-ac", strconv.Itoa(clip.Channels),
		"-i", "pipe:0",
		"-f", f.format,
		"pipe:1",
	}
	out, err := f.run(ctx, args, raw)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg encode %s: %w", f.format, err)
	}
	return out, nil
}

func (f *ffmpegCodec) run(ctx context.Context, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, f.bin, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
