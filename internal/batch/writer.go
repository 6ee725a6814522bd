package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/povarna/generative-ai-agents/lm-bridge/internal/models"
	"github.com/rs/zerolog"
)

const (
	FormatJSONL   = "jsonl"
	FormatSummary = "summary"
)

type Summary struct {
	Total           int                    `json:"total"`
	Outcomes        map[models.Outcome]int `json:"outcomes"`
	AverageDuration time.Duration          `json:"average_duration_ns"`
}

type Writer struct {
	format   string
	encoder  *json.Encoder
	summary  Summary
	duration time.Duration
	logger   *zerolog.Logger
}

func NewWriter(w io.Writer, format string, logger *zerolog.Logger) (*Writer, error) {
	switch format {
	case FormatJSONL, FormatSummary:
	default:
		return nil, fmt.Errorf("unsupported output format: %q", format)
	}

	return &Writer{
		format:  format,
		encoder: json.NewEncoder(w),
		summary: Summary{Outcomes: make(map[models.Outcome]int)},
		logger:  logger,
	}, nil
}

func (w *Writer) Write(result models.CompletionResult) error {
	w.summary.Total++
	w.summary.Outcomes[result.Outcome]++
	w.duration += result.Duration

	if w.format != FormatJSONL {
		return nil
	}
	return w.encoder.Encode(result)
}

func (w *Writer) Summary() Summary {
	s := w.summary
	if s.Total > 0 {
		s.AverageDuration = w.duration / time.Duration(s.Total)
	}
	return s
}

// Close flushes the summary document in summary format. The underlying
// writer is left open.
func (w *Writer) Close() error {
	s := w.Summary()
	w.logger.Info().Int("total", s.Total).Dur("average_duration", s.AverageDuration).Msg("Batch writer closed")

	if w.format != FormatSummary {
		return nil
	}
	return w.encoder.Encode(s)
}
