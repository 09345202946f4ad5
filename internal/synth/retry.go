package synth

import (
	"context"
	"errors"
	"time"

	"github.com/papervoice/papervoice/internal/fault"
)

// retrySynth re-issues transient upstream failures with a short backoff.
// Credential and validation failures are never retried.
type retrySynth struct {
	inner    Synthesizer
	attempts int
	backoff  time.Duration
}

// WithRetry wraps s with bounded retry on upstream request failures.
func WithRetry(s Synthesizer, attempts int) Synthesizer {
	if attempts < 1 {
		attempts = 1
	}
	return &retrySynth{inner: s, attempts: attempts, backoff: time.Second}
}

func (r *retrySynth) Speak(ctx context.Context, req Request) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		audio, err := r.inner.Speak(ctx, req)
		if err == nil {
			return audio, nil
		}
		lastErr = err
		if fault.KindOf(err) != fault.KindUpstreamRequest {
			return nil, err
		}
		if attempt == r.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ctx.Err(), lastErr)
		case <-time.After(r.backoff * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}
