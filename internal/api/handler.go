package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/models"
	"github.com/rs/zerolog"
)

type Completer interface {
	Execute(ctx context.Context, request models.CompletionRequest) models.CompletionResult
}

type Handler struct {
	completer Completer
	logger    *zerolog.Logger
}

func NewHandler(completer Completer, logger *zerolog.Logger) *Handler {
	return &Handler{
		completer: completer,
		logger:    logger,
	}
}

// POST /api/v1/completions
// Body: CompletionRequest
// Returns: CompletionResult
func (h *Handler) Complete(req *restful.Request, resp *restful.Response) {
	var request models.CompletionRequest
	if err := req.ReadEntity(&request); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	result := h.completer.Execute(req.Request.Context(), request)

	switch result.Outcome {
	case models.OutcomeMalformed:
		h.logger.Error().Str("id", result.ID).Str("error", result.Error).Msg("Malformed model response")
		middleware.HandleError(resp, errors.New(result.Error), http.StatusBadGateway)
	case models.OutcomeCancelled:
		h.logger.Warn().Str("id", result.ID).Msg("Completion cancelled")
		middleware.HandleError(resp, errors.New(result.Error), http.StatusServiceUnavailable)
	default:
		resp.WriteHeaderAndEntity(http.StatusOK, result)
	}
}

// Health handler GET API /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	healthResponse := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}

	resp.WriteHeaderAndEntity(http.StatusOK, healthResponse)
}
