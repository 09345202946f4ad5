package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/papervoice/papervoice/internal/fault"
)

const (
	defaultEndpoint  = "https://api.openai.com/v1/audio/speech"
	defaultStyleHint = "be fluent & clear, like a podcast narrator"
	requestTimeout   = 90 * time.Second
)

type openAISynth struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	Instructions   string `json:"instructions,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// NewOpenAI builds the hosted speech engine. An empty key falls back to the
// OPENAI_API_KEY environment variable (the config loader reads .env first).
func NewOpenAI(apiKey string) (Synthesizer, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fault.CredentialMissing("synth",
			"OPENAI_API_KEY not found; add it to a .env file or export it in the environment")
	}
	return &openAISynth{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: requestTimeout},
	}, nil
}

func (s *openAISynth) Speak(ctx context.Context, req Request) ([]byte, error) {
	style := req.StyleHint
	if style == "" {
		style = defaultStyleHint
	}
	payload, err := json.Marshal(speechRequest{
		Model:          req.Model,
		Input:          req.Text,
		Voice:          req.Voice,
		Instructions:   style,
		ResponseFormat: req.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build speech request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fault.New(fault.KindUpstreamRequest, "synth", "speech request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fault.CredentialMissing("synth", fmt.Sprintf("speech API rejected credentials (%d)", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fault.New(fault.KindUpstreamRequest, "synth",
			fmt.Sprintf("speech API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.New(fault.KindUpstreamRequest, "synth", "read speech response", err)
	}
	return audio, nil
}
