// Package dispatch drives per-chunk synthesis: one synthesis call per
// chunk, one fully written artifact per call, strictly in chunk order.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/papervoice/papervoice/internal/artifact"
	"github.com/papervoice/papervoice/internal/fault"
	"github.com/papervoice/papervoice/internal/progress"
	"github.com/papervoice/papervoice/internal/synth"
)

// Options carries the per-document synthesis parameters.
type Options struct {
	Voice     string
	Model     string
	StyleHint string
	// Format is the artifact container and file extension.
	Format string
}

// Dispatcher synthesizes chunk sequences into named artifacts.
type Dispatcher struct {
	synth    synth.Synthesizer
	logger   *slog.Logger
	reporter progress.Reporter
	tracer   trace.Tracer
	chunks   metric.Int64Counter
}

// New builds a dispatcher. reporter may be nil.
func New(s synth.Synthesizer, logger *slog.Logger, reporter progress.Reporter) *Dispatcher {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	d := &Dispatcher{
		synth:    s,
		logger:   logger.With(slog.String("component", "dispatcher")),
		reporter: reporter,
		tracer:   otel.Tracer("github.com/papervoice/papervoice/internal/dispatch"),
	}
	counter, err := otel.Meter("github.com/papervoice/papervoice/internal/dispatch").
		Int64Counter("papervoice.chunks.synthesized", metric.WithDescription("Chunks synthesized to audio"))
	if err != nil {
		d.logger.Warn("failed to initialize metrics", slog.String("error", err.Error()))
	} else {
		d.chunks = counter
	}
	return d
}

// Dispatch synthesizes chunks in order and writes one artifact per chunk
// under outputDir. A single chunk yields {stem}.{ext}; several yield
// {stem}_partNNN.{ext}. On a synthesis failure for chunk i the dispatch
// aborts; artifacts for chunks 1..i-1 stay on disk for the caller to clean
// up or resume from.
func (d *Dispatcher) Dispatch(ctx context.Context, chunks []string, stem, outputDir string, opts Options) ([]artifact.Artifact, error) {
	if len(chunks) == 0 {
		return nil, fault.Validation("dispatch", "no chunks to synthesize")
	}
	if len(chunks) > artifact.MaxParts {
		return nil, fault.Validation("dispatch",
			fmt.Sprintf("%d chunks exceed the %d-part naming cap", len(chunks), artifact.MaxParts))
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	ctx, span := d.tracer.Start(ctx, "dispatch.synthesize",
		trace.WithAttributes(attribute.String("stem", stem), attribute.Int("chunks", len(chunks))))
	defer span.End()

	d.reporter.Start("synthesizing "+stem, len(chunks))
	artifacts := make([]artifact.Artifact, 0, len(chunks))
	for i, text := range chunks {
		index := i + 1
		path, err := d.chunkPath(len(chunks), stem, outputDir, opts.Format, index)
		if err != nil {
			return artifacts, err
		}

		audio, err := d.synth.Speak(ctx, synth.Request{
			Text:      text,
			Voice:     opts.Voice,
			Model:     opts.Model,
			StyleHint: opts.StyleHint,
			Format:    opts.Format,
		})
		if err != nil {
			d.logger.Error("chunk synthesis failed",
				slog.Int("chunk", index), slog.String("error", err.Error()))
			if fault.KindOf(err) == fault.KindUnknown {
				err = fault.Upstream("dispatch", index, err)
			}
			return artifacts, err
		}

		if err := os.WriteFile(path, audio, 0o644); err != nil {
			return artifacts, fmt.Errorf("write artifact %s: %w", path, err)
		}
		if d.chunks != nil {
			d.chunks.Add(ctx, 1)
		}
		d.logger.Info("chunk synthesized",
			slog.Int("chunk", index), slog.Int("of", len(chunks)), slog.String("path", path))

		a := artifact.Artifact{Path: path, Stem: stem}
		if len(chunks) > 1 {
			a.Index = index
		}
		artifacts = append(artifacts, a)
		d.reporter.Step()
	}
	d.reporter.Finish()
	return artifacts, nil
}

func (d *Dispatcher) chunkPath(total int, stem, dir, ext string, index int) (string, error) {
	if total == 1 {
		return artifact.SingleName(dir, stem, ext), nil
	}
	return artifact.PartName(dir, stem, ext, index)
}
