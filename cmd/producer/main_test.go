package main

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/povarna/generative-ai-agents/lm-bridge/internal/models"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantErr    error
		wantPrompt string
		wantStream string
	}{
		{name: "prompt given", args: []string{"-p", "hello"}, wantPrompt: "hello"},
		{name: "empty prompt allowed", args: []string{"-p", ""}, wantPrompt: ""},
		{name: "empty prompt with equals", args: []string{"-p="}, wantPrompt: ""},
		{name: "stream override", args: []string{"-p", "x", "-stream", "custom"}, wantPrompt: "x", wantStream: "custom"},
		{name: "prompt missing", args: []string{"-stream", "custom"}, wantErr: errNoPrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseArgs(tt.args, io.Discard)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseArgs failed: %v", err)
			}
			if opts.prompt != tt.wantPrompt {
				t.Errorf("Expected prompt %q, got %q", tt.wantPrompt, opts.prompt)
			}
			if opts.stream != tt.wantStream {
				t.Errorf("Expected stream %q, got %q", tt.wantStream, opts.stream)
			}
		})
	}
}

func TestNewPayload(t *testing.T) {
	payload, request, err := newPayload("", "")
	if err != nil {
		t.Fatalf("newPayload failed: %v", err)
	}
	if request.ID == "" {
		t.Error("Expected a generated id")
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	prompt, ok := decoded["prompt"]
	if !ok || prompt != "" {
		t.Errorf("Expected empty prompt key in %s", payload)
	}

	payload, _, _ = newPayload("hi", "req-1")
	var back models.CompletionRequest
	_ = json.Unmarshal([]byte(payload), &back)
	if back.ID != "req-1" || back.Prompt != "hi" {
		t.Errorf("Unexpected request %+v", back)
	}
}
