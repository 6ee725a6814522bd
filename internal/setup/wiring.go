package setup

import (
	"context"
	"fmt"

	"github.com/povarna/generative-ai-agents/lm-bridge/internal/bridge"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/config"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/executor"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/llm"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/llm/bedrock"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/llm/gpt"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/llm/lmstudio"
	"github.com/rs/zerolog"
)

type Dependencies struct {
	Bridge   *bridge.Bridge
	Executor *executor.Executor
	Logger   *zerolog.Logger
}

func LoadConfig() (*config.Config, error) {
	return config.Load()
}

func Wire(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Dependencies, error) {
	llmClient, err := createLLMClient(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
	}

	b := bridge.New(bridge.Config{
		MaxTokens:  cfg.Completion.MaxTokens,
		ErrorLabel: cfg.Completion.ErrorLabel,
		Retry:      cfg.Completion.Retry,
	}, llmClient, logger)

	logger.Info().
		Str("provider", cfg.Provider).
		Int("max_tokens", cfg.Completion.MaxTokens).
		Dur("timeout", cfg.Completion.Timeout).
		Bool("retry", cfg.Completion.Retry).
		Msg("request bridge wired")

	return &Dependencies{
		Bridge:   b,
		Executor: executor.NewExecutor(b, logger),
		Logger:   logger,
	}, nil
}

func createLLMClient(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (llm.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		client, err := gpt.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.ModelID, cfg.Completion.Timeout)
		if err != nil {
			return nil, err
		}
		client.MaxRetries = cfg.Completion.MaxRetries
		return client, nil
	case config.ProviderBedrock:
		client, err := bedrock.NewClient(ctx, cfg.Bedrock.Region, cfg.Bedrock.ModelID)
		if err != nil {
			return nil, err
		}
		client.MaxRetries = cfg.Completion.MaxRetries
		return client, nil
	default:
		return lmstudio.NewClient(lmstudio.Config{
			Endpoint:   cfg.LMStudio.Endpoint,
			Model:      cfg.LMStudio.Model,
			Timeout:    cfg.Completion.Timeout,
			MaxRetries: cfg.Completion.MaxRetries,
		}, logger), nil
	}
}
