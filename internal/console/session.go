// Package console is the interactive front-end: one prompt entry, a submit
// action, an exit action and a read-only output stream. The network call runs
// off the event loop so the session stays responsive and can be cancelled.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/povarna/generative-ai-agents/lm-bridge/internal/models"
	"github.com/rs/zerolog"
)

const (
	CommandExit   = "/exit"
	CommandCancel = "/cancel"
)

// Completer runs one completion round-trip
type Completer interface {
	Execute(ctx context.Context, request models.CompletionRequest) models.CompletionResult
}

type Session struct {
	completer Completer
	in        io.Reader
	out       io.Writer
	logger    *zerolog.Logger
}

func NewSession(completer Completer, in io.Reader, out io.Writer, logger *zerolog.Logger) *Session {
	return &Session{
		completer: completer,
		in:        in,
		out:       out,
		logger:    logger,
	}
}

type inputEvent struct {
	line string
	err  error
	eof  bool
}

// Run processes input until the exit command, end of input or ctx cancellation.
// At most one completion is in flight at a time.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan inputEvent)
	go s.readLines(ctx, lines)

	results := make(chan models.CompletionResult, 1)
	var cancelInFlight context.CancelFunc
	inFlight := false
	closing := false

	s.printf("Enter prompt (%s to abort the running request, %s to quit):\n", CommandCancel, CommandExit)

	for {
		if closing && !inFlight {
			return nil
		}

		select {
		case <-ctx.Done():
			if cancelInFlight != nil {
				cancelInFlight()
			}
			return ctx.Err()

		case result := <-results:
			cancelInFlight()
			inFlight = false
			cancelInFlight = nil
			s.show(result)

		case event := <-lines:
			if event.err != nil {
				s.logger.Error().Err(event.err).Msg("failed to read input")
				s.printf("Failed to read input: %v\n", event.err)
				if cancelInFlight != nil {
					cancelInFlight()
				}
				return fmt.Errorf("read input: %w", event.err)
			}
			if event.eof {
				closing = true
				lines = nil
				continue
			}

			switch strings.TrimSpace(event.line) {
			case CommandExit:
				if cancelInFlight != nil {
					cancelInFlight()
				}
				return nil

			case CommandCancel:
				if !inFlight {
					s.printf("No request in progress.\n")
					continue
				}
				cancelInFlight()

			default:
				if inFlight {
					s.printf("A request is already in progress; wait for it or use %s.\n", CommandCancel)
					continue
				}

				var callCtx context.Context
				callCtx, cancelInFlight = context.WithCancel(ctx)
				inFlight = true
				go func(prompt string) {
					results <- s.completer.Execute(callCtx, models.CompletionRequest{Prompt: prompt})
				}(event.line)
			}
		}
	}
}

// readLines has no line length limit: a prompt of any size is one event.
func (s *Session) readLines(ctx context.Context, lines chan<- inputEvent) {
	reader := bufio.NewReader(s.in)

	send := func(event inputEvent) bool {
		select {
		case lines <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		line, err := reader.ReadString('\n')
		if line != "" && (err == nil || errors.Is(err, io.EOF)) {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			if !send(inputEvent{line: line}) {
				return
			}
		}
		if errors.Is(err, io.EOF) {
			send(inputEvent{eof: true})
			return
		}
		if err != nil {
			send(inputEvent{err: err})
			return
		}
	}
}

func (s *Session) show(result models.CompletionResult) {
	switch result.Outcome {
	case models.OutcomeCancelled:
		s.printf("Request cancelled.\n")
	case models.OutcomeMalformed:
		s.printf("Unexpected response from the model server: %s\n", result.Error)
	default:
		s.printf("%s\n", result.Text)
	}
}

func (s *Session) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(s.out, format, args...); err != nil {
		s.logger.Error().Err(err).Msg("failed to write output")
	}
}
