package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/povarna/generative-ai-agents/lm-bridge/internal/llm"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/models"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxTokens  = 50
	DefaultErrorLabel = "Error while requesting LM Studio API"
)

type Config struct {
	MaxTokens  int
	ErrorLabel string
	// Retry switches to InvokeModelWithRetry. Off by default: one request per prompt.
	Retry bool
}

// Reply is the outcome of forwarding one prompt.
type Reply struct {
	Text    string
	Outcome models.Outcome
	Err     error
}

// Bridge forwards a prompt to the model server and maps every outcome onto
// text for display or an explicit error.
type Bridge struct {
	client llm.LLMClient
	cfg    Config
	logger *zerolog.Logger
}

func New(cfg Config, client llm.LLMClient, logger *zerolog.Logger) *Bridge {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.ErrorLabel == "" {
		cfg.ErrorLabel = DefaultErrorLabel
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Bridge{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

func (b *Bridge) Ask(ctx context.Context, prompt string) Reply {
	request := llm.LLMRequest{
		Prompt:    prompt,
		MaxTokens: b.cfg.MaxTokens,
	}

	var (
		response *llm.LLMResponse
		err      error
	)
	if b.cfg.Retry {
		response, err = b.client.InvokeModelWithRetry(ctx, request)
	} else {
		response, err = b.client.InvokeModel(ctx, request)
	}

	switch {
	case err == nil:
		return Reply{Text: response.Content, Outcome: models.OutcomeAnswered}

	case errors.Is(err, context.Canceled):
		b.logger.Debug().Err(err).Msg("completion cancelled")
		return Reply{Outcome: models.OutcomeCancelled, Err: err}

	case errors.Is(err, llm.ErrMalformedResponse):
		b.logger.Error().Err(err).Msg("model server returned an unusable completion")
		return Reply{Outcome: models.OutcomeMalformed, Err: err}

	default:
		b.logger.Warn().Err(err).Msg("completion request failed")
		return Reply{
			Text:    b.label(err),
			Outcome: models.OutcomeRecovered,
			Err:     err,
		}
	}
}

// GetResponse returns the completion text, or the labelled error text when the
// request failed at the HTTP or transport level. Only malformed responses and
// cancellation are returned as errors.
func (b *Bridge) GetResponse(ctx context.Context, prompt string) (string, error) {
	reply := b.Ask(ctx, prompt)
	switch reply.Outcome {
	case models.OutcomeMalformed, models.OutcomeCancelled:
		return "", reply.Err
	default:
		return reply.Text, nil
	}
}

func (b *Bridge) label(err error) string {
	return fmt.Sprintf("%s: %v", b.cfg.ErrorLabel, err)
}
