package convert

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/papervoice/papervoice/internal/audio"
	"github.com/papervoice/papervoice/internal/config"
	"github.com/papervoice/papervoice/internal/dispatch"
	"github.com/papervoice/papervoice/internal/fault"
	"github.com/papervoice/papervoice/internal/joblog"
	"github.com/papervoice/papervoice/internal/merge"
	"github.com/papervoice/papervoice/internal/synth"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Extract(ctx context.Context, path string) (string, error) {
	return s.text, s.err
}

type failingSynth struct {
	inner  synth.Synthesizer
	calls  int
	failAt int
}

func (f *failingSynth) Speak(ctx context.Context, req synth.Request) ([]byte, error) {
	f.calls++
	if f.calls == f.failAt {
		return nil, fault.Upstream("synth", 0, errors.New("service unavailable"))
	}
	return f.inner.Speak(ctx, req)
}

// touchDoc creates a placeholder source document; extraction is stubbed.
func touchDoc(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4 placeholder"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newRouter(t *testing.T, text string, s synth.Synthesizer) *Router {
	t.Helper()
	logger := newLogger()
	if s == nil {
		s = synth.NewMock(22050, 1)
	}
	pipeline := NewTextPipeline(
		stubExtractor{text: text},
		dispatch.New(s, logger, nil),
		merge.New(audio.NewWAVCodec(), logger, nil),
		logger,
	)
	r := NewRouter(logger, nil)
	r.Register(".pdf", pipeline)
	return r
}

func baseRequest(path, dir string) Request {
	return Request{
		Path:          path,
		Voice:         "onyx",
		Model:         "gpt-4o-mini-tts",
		OutputDir:     dir,
		Format:        "wav",
		MaxChunkChars: 3500,
		Gap:           300 * time.Millisecond,
		Merge:         true,
	}
}

func TestConvertMissingFile(t *testing.T) {
	r := newRouter(t, "text.", nil)
	_, err := r.Convert(context.Background(), baseRequest(filepath.Join(t.TempDir(), "nope.pdf"), t.TempDir()))
	if fault.KindOf(err) != fault.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestConvertUnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := touchDoc(t, dir, "notes.docx")
	r := newRouter(t, "text.", nil)
	_, err := r.Convert(context.Background(), baseRequest(path, dir))
	if fault.KindOf(err) != fault.KindUnsupportedType {
		t.Fatalf("expected unsupported_type, got %v", err)
	}
	if !strings.Contains(err.Error(), ".docx") {
		t.Fatalf("error must name the suffix: %v", err)
	}
}

func TestConvertSingleChunkNoMerge(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	path := touchDoc(t, dir, "doc.pdf")
	r := newRouter(t, "First sentence is here. Second one too.", nil)

	arts, err := r.Convert(context.Background(), baseRequest(path, out))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(arts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(arts))
	}
	want := filepath.Join(out, "doc.wav")
	if arts[0].Path != want {
		t.Fatalf("single chunk must skip part naming: %q", arts[0].Path)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one output file, got %d", len(entries))
	}
}

func bigText() string {
	sentence := "This is a reasonably long sentence that will be repeated to build a large document body."
	return strings.Repeat(sentence+" ", 100)
}

func TestConvertMultiChunkMergesAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	path := touchDoc(t, dir, "doc.pdf")
	gap := 300 * time.Millisecond

	// First pass without merging to learn the per-part durations.
	req := baseRequest(path, out)
	req.Merge = false
	arts, err := newRouter(t, bigText(), nil).Convert(context.Background(), req)
	if err != nil {
		t.Fatalf("convert (unmerged): %v", err)
	}
	if len(arts) != 3 {
		t.Fatalf("expected 3 parts from ~9k chars at 3500 cap, got %d", len(arts))
	}
	var partFrames int
	for i, a := range arts {
		wantName := filepath.Join(out, "doc_part00"+string(rune('1'+i))+".wav")
		if a.Path != wantName {
			t.Fatalf("part %d misnamed: %q", i+1, a.Path)
		}
		data, err := os.ReadFile(a.Path)
		if err != nil {
			t.Fatalf("read part: %v", err)
		}
		clip, err := audio.NewWAVCodec().Decode(context.Background(), data)
		if err != nil {
			t.Fatalf("decode part: %v", err)
		}
		partFrames += len(clip.Data)
	}

	// Second pass into a fresh directory with merging on.
	out2 := t.TempDir()
	req2 := baseRequest(path, out2)
	arts2, err := newRouter(t, bigText(), nil).Convert(context.Background(), req2)
	if err != nil {
		t.Fatalf("convert (merged): %v", err)
	}
	if len(arts2) != 1 {
		t.Fatalf("expected single merged artifact, got %d", len(arts2))
	}
	mergedPath := filepath.Join(out2, "doc.wav")
	if arts2[0].Path != mergedPath {
		t.Fatalf("merged artifact misnamed: %q", arts2[0].Path)
	}

	data, err := os.ReadFile(mergedPath)
	if err != nil {
		t.Fatalf("read merged: %v", err)
	}
	clip, err := audio.NewWAVCodec().Decode(context.Background(), data)
	if err != nil {
		t.Fatalf("decode merged: %v", err)
	}
	gapFrames := int(gap.Milliseconds()) * 22050 / 1000
	want := partFrames + 2*gapFrames
	if len(clip.Data) != want {
		t.Fatalf("merged length: want %d frames, got %d", want, len(clip.Data))
	}

	// The pre-merge parts must be gone.
	entries, _ := os.ReadDir(out2)
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("parts not cleaned up after merge: %v", names)
	}
}

func TestConvertAbortsMidwayLeavesEarlierParts(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	path := touchDoc(t, dir, "doc.pdf")

	s := &failingSynth{inner: synth.NewMock(22050, 1), failAt: 2}
	_, err := newRouter(t, bigText(), s).Convert(context.Background(), baseRequest(path, out))
	if fault.KindOf(err) != fault.KindUpstreamRequest {
		t.Fatalf("expected upstream_request, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "doc_part001.wav")); err != nil {
		t.Fatal("part 1 should remain after abort")
	}
	if _, err := os.Stat(filepath.Join(out, "doc_part002.wav")); !os.IsNotExist(err) {
		t.Fatal("part 2 must not exist")
	}
	if _, err := os.Stat(filepath.Join(out, "doc_part003.wav")); !os.IsNotExist(err) {
		t.Fatal("part 3 must not have been attempted")
	}
}

func TestConvertEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	path := touchDoc(t, dir, "doc.pdf")
	_, err := newRouter(t, "   \n ", nil).Convert(context.Background(), baseRequest(path, t.TempDir()))
	if fault.KindOf(err) != fault.KindValidation {
		t.Fatalf("expected validation error for empty text, got %v", err)
	}
}

func TestConvertExtractionFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	path := touchDoc(t, dir, "doc.pdf")
	logger := newLogger()
	pipeline := NewTextPipeline(
		stubExtractor{err: fault.Extraction("extract", path, errors.New("bad xref"))},
		dispatch.New(synth.NewMock(22050, 1), logger, nil),
		merge.New(audio.NewWAVCodec(), logger, nil),
		logger,
	)
	r := NewRouter(logger, nil)
	r.Register(".pdf", pipeline)

	_, err := r.Convert(context.Background(), baseRequest(path, t.TempDir()))
	if fault.KindOf(err) != fault.KindExtraction {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestConvertRecordsRun(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	path := touchDoc(t, dir, "doc.pdf")

	store, err := joblog.Open(context.Background(),
		config.JobLogConfig{Path: filepath.Join(t.TempDir(), "runs.db"), RetentionMode: "recent"}, newLogger())
	if err != nil {
		t.Fatalf("open joblog: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	logger := newLogger()
	pipeline := NewTextPipeline(
		stubExtractor{text: "Just one sentence."},
		dispatch.New(synth.NewMock(22050, 1), logger, nil),
		merge.New(audio.NewWAVCodec(), logger, nil),
		logger,
	)
	r := NewRouter(logger, store)
	r.Register(".pdf", pipeline)

	if _, err := r.Convert(context.Background(), baseRequest(path, out)); err != nil {
		t.Fatalf("convert: %v", err)
	}

	runs, err := store.ListRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Outcome != "ok" || runs[0].Chunks != 1 {
		t.Fatalf("run not recorded: %+v", runs)
	}
	arts, err := store.ListArtifacts(context.Background(), runs[0].ID)
	if err != nil || len(arts) != 1 {
		t.Fatalf("artifact not recorded: %v %+v", err, arts)
	}
}
