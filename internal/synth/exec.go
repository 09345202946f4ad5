package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/mattn/go-shellwords"
	"github.com/papervoice/papervoice/internal/fault"
)

// execSynth runs a local synthesis command per request: JSON on stdin,
// finished audio bytes on stdout.
type execSynth struct {
	cmd []string
	mu  sync.Mutex
}

type execRequest struct {
	Text      string `json:"text"`
	Voice     string `json:"voice"`
	Model     string `json:"model,omitempty"`
	StyleHint string `json:"style_hint,omitempty"`
	Format    string `json:"format"`
}

// NewExec builds the exec-mode engine from a shell-style command line.
func NewExec(command string) (Synthesizer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse synthesis command: %w", err)
	}
	if len(args) == 0 {
		return nil, fault.Validation("synth", "synthesis command empty")
	}
	return &execSynth{cmd: args}, nil
}

func (e *execSynth) Speak(ctx context.Context, req Request) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	payload, err := json.Marshal(execRequest{
		Text:      req.Text,
		Voice:     req.Voice,
		Model:     req.Model,
		StyleHint: req.StyleHint,
		Format:    req.Format,
	})
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, e.cmd[0], e.cmd[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cause := err
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			cause = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, fault.New(fault.KindUpstreamRequest, "synth", "synthesis command failed", cause)
	}
	return stdout.Bytes(), nil
}
