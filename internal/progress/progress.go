// Package progress defines the progress-reporting capability the pipeline
// calls unconditionally. The CLI wires the terminal renderer; library
// callers keep the no-op.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Reporter receives coarse pipeline progress. Implementations must be safe
// for sequential reuse across stages.
type Reporter interface {
	Start(label string, total int)
	Step()
	Finish()
}

// Nop discards all progress.
type Nop struct{}

func (Nop) Start(string, int) {}
func (Nop) Step()             {}
func (Nop) Finish()           {}

// Terminal renders progress to w. On a TTY it overwrites a single line; on
// pipes it prints one line per stage boundary. A write failure disables it.
type Terminal struct {
	w       io.Writer
	enabled bool
	isTTY   bool

	label   string
	total   int
	done    int
	lastLen int

	mu sync.Mutex
}

// NewTerminal constructs a terminal reporter. When enabled is false every
// call is a no-op.
func NewTerminal(w io.Writer, enabled bool) *Terminal {
	if w == nil {
		w = os.Stderr
	}
	t := &Terminal{w: w, enabled: enabled}
	if os.Getenv("CI") != "" {
		t.isTTY = false
	} else if f, ok := w.(*os.File); ok {
		if fi, err := f.Stat(); err == nil {
			t.isTTY = fi.Mode()&os.ModeCharDevice != 0
		}
	}
	return t
}

func (t *Terminal) Start(label string, total int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.label = label
	t.total = total
	t.done = 0
	if !t.isTTY {
		t.println(fmt.Sprintf("%s: 0/%d", label, total))
		return
	}
	t.overwrite()
}

func (t *Terminal) Step() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.done++
	if t.isTTY {
		t.overwrite()
	}
}

func (t *Terminal) Finish() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	if t.isTTY {
		t.overwrite()
		t.write("\n")
		t.lastLen = 0
		return
	}
	t.println(fmt.Sprintf("%s: %d/%d done", t.label, t.done, t.total))
}

func (t *Terminal) overwrite() {
	line := fmt.Sprintf("%s: %d/%d", t.label, t.done, t.total)
	pad := ""
	if n := t.lastLen - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	t.write("\r" + line + pad)
	t.lastLen = len(line)
}

func (t *Terminal) println(s string) { t.write(s + "\n") }

func (t *Terminal) write(s string) {
	if _, err := io.WriteString(t.w, s); err != nil {
		t.enabled = false
	}
}
