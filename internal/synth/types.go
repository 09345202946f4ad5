// Package synth provides the speech-synthesis collaborator. Engines are
// selected by configuration mode; all of them return one finished audio
// payload per request.
package synth

import (
	"context"
	"fmt"

	"github.com/papervoice/papervoice/internal/config"
	"github.com/papervoice/papervoice/internal/fault"
)

// Request contains parameters for one synthesis call.
type Request struct {
	Text      string
	Voice     string
	Model     string
	StyleHint string
	// Format is the audio container requested from the engine ("mp3",
	// "wav").
	Format string
}

// Synthesizer is the contract for producing audio from text.
type Synthesizer interface {
	Speak(ctx context.Context, req Request) ([]byte, error)
}

// New builds a synthesizer for the configured mode, wrapped with bounded
// retry when max_attempts > 1.
func New(cfg config.SynthesisConfig) (Synthesizer, error) {
	var (
		s   Synthesizer
		err error
	)
	switch cfg.Mode {
	case "openai":
		s, err = NewOpenAI(cfg.APIKey)
	case "exec":
		s, err = NewExec(cfg.Command)
	case "mock":
		s = NewMock(cfg.SampleRate, cfg.Channels)
	default:
		return nil, fault.Validation("synth", fmt.Sprintf("unknown synthesis mode %q", cfg.Mode))
	}
	if err != nil {
		return nil, err
	}
	if cfg.MaxAttempts > 1 {
		s = WithRetry(s, cfg.MaxAttempts)
	}
	return s, nil
}
