// Package convert routes a source document to a handling strategy by file
// suffix and orchestrates extraction, segmentation, synthesis, and the
// optional merge into a single track.
package convert

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/papervoice/papervoice/internal/artifact"
	"github.com/papervoice/papervoice/internal/dispatch"
	"github.com/papervoice/papervoice/internal/extract"
	"github.com/papervoice/papervoice/internal/fault"
	"github.com/papervoice/papervoice/internal/joblog"
	"github.com/papervoice/papervoice/internal/merge"
	"github.com/papervoice/papervoice/internal/segment"
)

// Request carries one document conversion.
type Request struct {
	Path          string
	Voice         string
	Model         string
	StyleHint     string
	OutputDir     string
	Format        string
	MaxChunkChars int
	Gap           time.Duration
	// Merge combines multi-part output into one track and removes the
	// parts (best effort) on success.
	Merge bool
}

// Handler converts one document type.
type Handler interface {
	Convert(ctx context.Context, req Request) ([]artifact.Artifact, error)
}

// Router maps document suffixes to handlers. Adding a type is registering a
// new handler, not editing the routing logic.
type Router struct {
	handlers map[string]Handler
	logger   *slog.Logger
	runs     *joblog.Store
	tracer   trace.Tracer
}

// NewRouter builds an empty router. runs may be nil to skip ledger writes.
func NewRouter(logger *slog.Logger, runs *joblog.Store) *Router {
	return &Router{
		handlers: make(map[string]Handler),
		logger:   logger.With(slog.String("component", "router")),
		runs:     runs,
		tracer:   otel.Tracer("github.com/papervoice/papervoice/internal/convert"),
	}
}

// Register binds a handler to a suffix like ".pdf".
func (r *Router) Register(suffix string, h Handler) {
	r.handlers[strings.ToLower(suffix)] = h
}

// Convert validates the document, picks the handler for its suffix, and
// records the run in the ledger.
func (r *Router) Convert(ctx context.Context, req Request) ([]artifact.Artifact, error) {
	if _, err := os.Stat(req.Path); err != nil {
		if os.IsNotExist(err) {
			return nil, fault.NotFound("convert", req.Path)
		}
		return nil, err
	}

	suffix := strings.ToLower(filepath.Ext(req.Path))
	h, ok := r.handlers[suffix]
	if !ok {
		return nil, fault.UnsupportedType("convert", suffix)
	}

	ctx, span := r.tracer.Start(ctx, "convert",
		trace.WithAttributes(attribute.String("path", req.Path), attribute.String("type", suffix)))
	defer span.End()

	runID := r.beginRun(ctx, req.Path)
	arts, err := h.Convert(ctx, req)
	r.finishRun(ctx, runID, arts, err)
	return arts, err
}

func (r *Router) beginRun(ctx context.Context, source string) string {
	if r.runs == nil {
		return ""
	}
	id, err := r.runs.BeginRun(ctx, source, "convert")
	if err != nil {
		r.logger.Warn("failed to record run start", slog.String("error", err.Error()))
		return ""
	}
	return id
}

func (r *Router) finishRun(ctx context.Context, runID string, arts []artifact.Artifact, convErr error) {
	if r.runs == nil || runID == "" {
		return
	}
	for _, a := range arts {
		if err := r.runs.AddArtifact(ctx, runID, a.Path, a.Index); err != nil {
			r.logger.Warn("failed to record artifact", slog.String("error", err.Error()))
		}
	}
	outcome, errMsg := "ok", ""
	if convErr != nil {
		outcome = "failed"
		errMsg = convErr.Error()
	}
	merged := len(arts) == 1 && arts[0].Index == 0
	if err := r.runs.FinishRun(ctx, runID, len(arts), merged, outcome, errMsg); err != nil {
		r.logger.Warn("failed to record run outcome", slog.String("error", err.Error()))
	}
}

// TextPipeline is the extract → segment → synthesize → merge strategy used
// for any document an Extractor can turn into plain text.
type TextPipeline struct {
	extractor  extract.Extractor
	dispatcher *dispatch.Dispatcher
	merger     *merge.Merger
	logger     *slog.Logger
}

// NewTextPipeline wires the conversion strategy.
func NewTextPipeline(e extract.Extractor, d *dispatch.Dispatcher, m *merge.Merger, logger *slog.Logger) *TextPipeline {
	return &TextPipeline{
		extractor:  e,
		dispatcher: d,
		merger:     m,
		logger:     logger.With(slog.String("component", "pipeline")),
	}
}

func (p *TextPipeline) Convert(ctx context.Context, req Request) ([]artifact.Artifact, error) {
	text, err := p.extractor.Extract(ctx, req.Path)
	if err != nil {
		return nil, err
	}

	chunks := segment.Split(text, req.MaxChunkChars)
	if len(chunks) == 0 {
		return nil, fault.Validation("convert", "document contains no speakable text")
	}

	stem := artifact.Stem(req.Path)
	arts, err := p.dispatcher.Dispatch(ctx, chunks, stem, req.OutputDir, dispatch.Options{
		Voice:     req.Voice,
		Model:     req.Model,
		StyleHint: req.StyleHint,
		Format:    req.Format,
	})
	if err != nil {
		return arts, err
	}

	if !req.Merge || len(arts) < 2 {
		return arts, nil
	}

	inputs := make([]string, len(arts))
	for i, a := range arts {
		inputs[i] = a.Path
	}
	out := artifact.SingleName(req.OutputDir, stem, req.Format)
	merged, err := p.merger.Merge(ctx, inputs, out, req.Gap)
	if err != nil {
		return arts, err
	}

	// Parts are redundant once the combined track exists. Deletion is best
	// effort; a leftover part is an operator nuisance, not a failure.
	for _, path := range inputs {
		if err := os.Remove(path); err != nil {
			p.logger.Warn("failed to remove part after merge",
				slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	return []artifact.Artifact{merged}, nil
}
