// Package merge recovers the intended order of part files and concatenates
// them into one artifact with a silence gap between adjacent parts. It is
// usable standalone on any directory of numbered parts, regardless of what
// produced them.
package merge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/papervoice/papervoice/internal/artifact"
	"github.com/papervoice/papervoice/internal/audio"
	"github.com/papervoice/papervoice/internal/fault"
	"github.com/papervoice/papervoice/internal/progress"
)

// DefaultGap is the silence inserted between adjacent parts.
const DefaultGap = 300 * time.Millisecond

// Merger concatenates audio artifacts through a codec.
type Merger struct {
	codec    audio.Codec
	logger   *slog.Logger
	reporter progress.Reporter
	tracer   trace.Tracer
	merged   metric.Int64Counter
}

// New builds a merger. reporter may be nil.
func New(codec audio.Codec, logger *slog.Logger, reporter progress.Reporter) *Merger {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	m := &Merger{
		codec:    codec,
		logger:   logger.With(slog.String("component", "merger")),
		reporter: reporter,
		tracer:   otel.Tracer("github.com/papervoice/papervoice/internal/merge"),
	}
	counter, err := otel.Meter("github.com/papervoice/papervoice/internal/merge").
		Int64Counter("papervoice.artifacts.merged", metric.WithDescription("Artifacts merged into combined tracks"))
	if err != nil {
		m.logger.Warn("failed to initialize metrics", slog.String("error", err.Error()))
	} else {
		m.merged = counter
	}
	return m
}

// Merge decodes inputs in recovered order, joins them with gap silence
// between adjacent pairs (never before the first or after the last), and
// writes one encoded artifact at outPath. Inputs are read-only; deleting
// them afterwards is the caller's decision.
func (m *Merger) Merge(ctx context.Context, inputs []string, outPath string, gap time.Duration) (artifact.Artifact, error) {
	if len(inputs) == 0 {
		return artifact.Artifact{}, fault.Validation("merge", "no audio files provided to merge")
	}
	if gap < 0 {
		return artifact.Artifact{}, fault.Validation("merge", "gap must not be negative")
	}

	ordered := Order(inputs)

	ctx, span := m.tracer.Start(ctx, "merge.concat",
		trace.WithAttributes(attribute.Int("parts", len(ordered)), attribute.String("out", outPath)))
	defer span.End()

	m.reporter.Start("merging "+artifact.Stem(outPath), len(ordered))
	var combined audio.Clip
	for i, path := range ordered {
		m.logger.Info("reading part", slog.String("path", path))
		data, err := os.ReadFile(path)
		if err != nil {
			return artifact.Artifact{}, fmt.Errorf("read part %s: %w", path, err)
		}
		clip, err := m.codec.Decode(ctx, data)
		if err != nil {
			return artifact.Artifact{}, fmt.Errorf("decode part %s: %w", path, err)
		}
		if i > 0 && gap > 0 {
			if err := combined.Append(audio.Silence(gap, combined.SampleRate, combined.Channels)); err != nil {
				return artifact.Artifact{}, err
			}
		}
		if err := combined.Append(clip); err != nil {
			return artifact.Artifact{}, fmt.Errorf("append part %s: %w", path, err)
		}
		m.reporter.Step()
	}

	encoded, err := m.codec.Encode(ctx, &combined)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("encode merged track: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return artifact.Artifact{}, fmt.Errorf("write merged track: %w", err)
	}
	if m.merged != nil {
		m.merged.Add(ctx, 1)
	}
	m.reporter.Finish()
	m.logger.Info("merge complete",
		slog.String("path", outPath),
		slog.Int("parts", len(ordered)),
		slog.Duration("duration", combined.Duration()))

	return artifact.Artifact{Path: outPath, Stem: artifact.Stem(outPath)}, nil
}

// Order sorts paths into merge order: stems with a trailing _partNNN suffix
// first, ascending by numeric index, then everything else in original input
// order. The sort is stable, so duplicate indices keep input order too.
func Order(inputs []string) []string {
	ordered := append([]string(nil), inputs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		ii, iok := artifact.ParseIndex(ordered[i])
		ji, jok := artifact.ParseIndex(ordered[j])
		if iok != jok {
			return iok
		}
		if !iok {
			return false
		}
		return ii < ji
	})
	return ordered
}
