package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Synthesis.Mode != "openai" {
		t.Fatalf("expected default mode openai, got %q", cfg.Synthesis.Mode)
	}
	if cfg.Synthesis.MaxChunkChars != 3500 {
		t.Fatalf("expected default chunk cap 3500, got %d", cfg.Synthesis.MaxChunkChars)
	}
	if cfg.Merge.GapMS != 300 {
		t.Fatalf("expected default gap 300ms, got %d", cfg.Merge.GapMS)
	}
	if cfg.Output.Format != "mp3" {
		t.Fatalf("expected default format mp3, got %q", cfg.Output.Format)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing optional file must not fail: %v", err)
	}
	if cfg.Output.Dir != "./audio" {
		t.Fatalf("defaults not applied: %q", cfg.Output.Dir)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "papervoice.yaml")
	body := []byte("synthesis:\n  mode: mock\n  voice: alloy\noutput:\n  format: wav\nmerge:\n  gap_ms: 150\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Synthesis.Mode != "mock" || cfg.Synthesis.Voice != "alloy" {
		t.Fatalf("file values not applied: %+v", cfg.Synthesis)
	}
	if cfg.Output.Format != "wav" || cfg.Merge.GapMS != 150 {
		t.Fatalf("file values not applied: %+v %+v", cfg.Output, cfg.Merge)
	}
	// untouched sections keep defaults
	if cfg.Synthesis.Model != "gpt-4o-mini-tts" {
		t.Fatalf("default model lost: %q", cfg.Synthesis.Model)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PAPERVOICE_SYNTHESIS_MODE", "mock")
	t.Setenv("PAPERVOICE_VOICE", "nova")
	t.Setenv("PAPERVOICE_MAX_CHUNK_CHARS", "1200")
	t.Setenv("PAPERVOICE_OUTPUT_FORMAT", "wav")
	t.Setenv("PAPERVOICE_MERGE_GAP_MS", "0")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Synthesis.Mode != "mock" || cfg.Synthesis.Voice != "nova" {
		t.Fatalf("env overrides not applied: %+v", cfg.Synthesis)
	}
	if cfg.Synthesis.MaxChunkChars != 1200 {
		t.Fatalf("int override not applied: %d", cfg.Synthesis.MaxChunkChars)
	}
	if cfg.Output.Format != "wav" || cfg.Merge.GapMS != 0 {
		t.Fatalf("overrides not applied: %+v %+v", cfg.Output, cfg.Merge)
	}
	if cfg.Synthesis.APIKey != "sk-env" {
		t.Fatalf("api key override not applied")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Synthesis.Mode = "shout" }},
		{"exec without command", func(c *Config) { c.Synthesis.Mode = "exec"; c.Synthesis.Command = "" }},
		{"zero chunk chars", func(c *Config) { c.Synthesis.MaxChunkChars = 0 }},
		{"bad format", func(c *Config) { c.Output.Format = "ogg" }},
		{"negative gap", func(c *Config) { c.Merge.GapMS = -1 }},
		{"bad retention", func(c *Config) { c.JobLog.RetentionMode = "forever" }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		if err := validate(cfg); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
