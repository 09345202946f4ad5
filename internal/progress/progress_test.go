package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestTerminalNonTTYPrintsBoundaries(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminal(&buf, true)
	r.Start("synthesizing doc", 3)
	r.Step()
	r.Step()
	r.Step()
	r.Finish()

	out := buf.String()
	if !strings.Contains(out, "synthesizing doc: 0/3") {
		t.Fatalf("missing start line: %q", out)
	}
	if !strings.Contains(out, "synthesizing doc: 3/3 done") {
		t.Fatalf("missing finish line: %q", out)
	}
	// non-TTY writers must not see per-step spam
	if strings.Count(out, "\n") != 2 {
		t.Fatalf("expected exactly start+finish lines, got %q", out)
	}
}

func TestTerminalDisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminal(&buf, false)
	r.Start("x", 10)
	r.Step()
	r.Finish()
	if buf.Len() != 0 {
		t.Fatalf("disabled reporter wrote output: %q", buf.String())
	}
}

func TestNilTerminalIsSafe(t *testing.T) {
	var r *Terminal
	r.Start("x", 1)
	r.Step()
	r.Finish()
}

func TestNopSatisfiesReporter(t *testing.T) {
	var r Reporter = Nop{}
	r.Start("x", 1)
	r.Step()
	r.Finish()
}
