package setup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/povarna/generative-ai-agents/lm-bridge/internal/config"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/llm/gpt"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/llm/lmstudio"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/models"
	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func TestWire_LMStudioEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"text":"wired"}]}`))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.LMStudio.Endpoint = server.URL + "/v1/completions"

	deps, err := Wire(context.Background(), cfg, newTestLogger())
	if err != nil {
		t.Fatalf("Wire failed: %v", err)
	}

	result := deps.Executor.Execute(context.Background(), models.CompletionRequest{Prompt: "hi"})
	if result.Outcome != models.OutcomeAnswered {
		t.Errorf("Expected answered, got %s (%s)", result.Outcome, result.Error)
	}
	if result.Text != "wired" {
		t.Errorf("Expected 'wired', got '%s'", result.Text)
	}
}

func TestCreateLLMClient_Providers(t *testing.T) {
	cfg := config.Default()
	client, err := createLLMClient(context.Background(), cfg, newTestLogger())
	if err != nil {
		t.Fatalf("lmstudio: %v", err)
	}
	if _, ok := client.(*lmstudio.Client); !ok {
		t.Errorf("Expected *lmstudio.Client, got %T", client)
	}

	cfg.Provider = config.ProviderOpenAI
	cfg.OpenAI.BaseURL = "http://localhost:1234/v1"
	cfg.OpenAI.ModelID = "local-model"
	client, err = createLLMClient(context.Background(), cfg, newTestLogger())
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := client.(*gpt.Client); !ok {
		t.Errorf("Expected *gpt.Client, got %T", client)
	}

	cfg.OpenAI.ModelID = ""
	if _, err := createLLMClient(context.Background(), cfg, newTestLogger()); err == nil {
		t.Error("Expected error for openai provider without model")
	}
}
