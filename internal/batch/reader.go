package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/povarna/generative-ai-agents/lm-bridge/internal/models"
	"github.com/rs/zerolog"
)

type InputRecord struct {
	LineNumber int
	Request    models.CompletionRequest
	Error      error
}

type Reader struct {
	source io.Reader
	logger *zerolog.Logger
}

func NewReader(source io.Reader, logger *zerolog.Logger) *Reader {
	return &Reader{source: source, logger: logger}
}

// ReadAll streams one record per non-blank line. Parse failures are reported
// on the record, not as a stream error. Lines have no length limit.
func (r *Reader) ReadAll(ctx context.Context) <-chan InputRecord {
	out := make(chan InputRecord)

	go func() {
		defer close(out)

		reader := bufio.NewReader(r.source)
		lineNumber := 0
		for {
			raw, err := reader.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				r.logger.Error().Err(err).Int("line", lineNumber+1).Msg("Failed to read input")
				select {
				case <-ctx.Done():
				case out <- InputRecord{LineNumber: lineNumber + 1, Error: err}:
				}
				return
			}
			if raw == "" && errors.Is(err, io.EOF) {
				return
			}
			lineNumber++

			if line := strings.TrimSpace(raw); line != "" {
				record := InputRecord{LineNumber: lineNumber}
				if jsonErr := json.Unmarshal([]byte(line), &record.Request); jsonErr != nil {
					record.Error = fmt.Errorf("line %d: invalid JSON: %w", lineNumber, jsonErr)
				}

				select {
				case <-ctx.Done():
					return
				case out <- record:
				}
			}

			if errors.Is(err, io.EOF) {
				return
			}
		}
	}()

	return out
}
