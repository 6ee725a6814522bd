package executor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/bridge"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/models"
	"github.com/rs/zerolog"
)

// Asker forwards one prompt to the model server
type Asker interface {
	Ask(ctx context.Context, prompt string) bridge.Reply
}

type Executor struct {
	asker  Asker
	logger *zerolog.Logger
}

func NewExecutor(asker Asker, logger *zerolog.Logger) *Executor {
	return &Executor{
		asker:  asker,
		logger: logger,
	}
}

func (e *Executor) Execute(ctx context.Context, request models.CompletionRequest) models.CompletionResult {
	id := request.ID
	if id == "" {
		id = uuid.NewString()
	}
	e.logger.Info().Str("requestID", id).Int("promptLength", len(request.Prompt)).Msg("starting completion")

	start := time.Now()
	reply := e.asker.Ask(ctx, request.Prompt)

	result := models.CompletionResult{
		ID:       id,
		Prompt:   request.Prompt,
		Text:     reply.Text,
		Outcome:  reply.Outcome,
		Duration: time.Since(start),
	}
	if reply.Err != nil {
		result.Error = reply.Err.Error()
	}

	e.logger.
		Info().
		Str("requestID", id).
		Str("outcome", string(result.Outcome)).
		Dur("duration", result.Duration).
		Msg("completion finished")
	return result
}
