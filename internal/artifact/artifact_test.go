package artifact

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/papervoice/papervoice/internal/fault"
)

func TestPartNameZeroPadding(t *testing.T) {
	got, err := PartName("out", "doc", "mp3", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join("out", "doc_part007.mp3")
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestPartNameCap(t *testing.T) {
	if _, err := PartName("out", "doc", "mp3", MaxParts); err != nil {
		t.Fatalf("index %d should be valid: %v", MaxParts, err)
	}
	_, err := PartName("out", "doc", "mp3", MaxParts+1)
	if err == nil {
		t.Fatal("expected error above the part cap")
	}
	if !errors.Is(err, fault.Validation("", "")) {
		t.Fatalf("expected validation kind, got %v", err)
	}
	if _, err := PartName("out", "doc", "mp3", 0); err == nil {
		t.Fatal("expected error for index 0")
	}
}

func TestParseIndex(t *testing.T) {
	idx, ok := ParseIndex("/audio/doc_part042.mp3")
	if !ok || idx != 42 {
		t.Fatalf("expected (42,true), got (%d,%v)", idx, ok)
	}
	idx, ok = ParseIndex("doc_part123456.wav")
	if !ok || idx != 123456 {
		t.Fatalf("six-digit external parts must parse, got (%d,%v)", idx, ok)
	}
	if _, ok := ParseIndex("/audio/doc.mp3"); ok {
		t.Fatal("plain name must not parse as a part")
	}
	if _, ok := ParseIndex("doc_partway.mp3"); ok {
		t.Fatal("non-numeric suffix must not parse")
	}
	if _, ok := ParseIndex("doc_part001_final.mp3"); ok {
		t.Fatal("suffix must be trailing")
	}
}

func TestStem(t *testing.T) {
	if got := Stem("/a/b/report.pdf"); got != "report" {
		t.Fatalf("want report, got %q", got)
	}
	if got := Stem("noext"); got != "noext" {
		t.Fatalf("want noext, got %q", got)
	}
}
