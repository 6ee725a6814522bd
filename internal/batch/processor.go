package batch

import (
	"context"
	"sync"

	"github.com/povarna/generative-ai-agents/lm-bridge/internal/models"
	"github.com/rs/zerolog"
)

type Executor interface {
	Execute(ctx context.Context, request models.CompletionRequest) models.CompletionResult
}

type Processor struct {
	executor Executor
	workers  int
	logger   *zerolog.Logger
}

func NewProcessor(executor Executor, workers int, logger *zerolog.Logger) *Processor {
	if workers < 1 {
		workers = 1
	}
	return &Processor{executor: executor, workers: workers, logger: logger}
}

// Process fans records out to the worker pool. Records that failed to parse
// are logged and skipped. Results arrive in completion order.
func (p *Processor) Process(ctx context.Context, records []InputRecord) <-chan models.CompletionResult {
	jobs := make(chan InputRecord)
	results := make(chan models.CompletionResult, p.workers)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for record := range jobs {
				result := p.executor.Execute(ctx, record.Request)
				p.logger.Debug().
					Int("worker", workerID).
					Int("line", record.LineNumber).
					Str("id", result.ID).
					Str("outcome", string(result.Outcome)).
					Msg("Record processed")

				select {
				case <-ctx.Done():
					return
				case results <- result:
				}
			}
		}(i)
	}

	go func() {
		defer close(jobs)
		for _, record := range records {
			if record.Error != nil {
				p.logger.Warn().Err(record.Error).Int("line", record.LineNumber).Msg("Skipping invalid record")
				continue
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- record:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}
