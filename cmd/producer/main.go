package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/models"
	red "github.com/povarna/generative-ai-agents/lm-bridge/internal/redis"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/setup"
	streamredis "github.com/povarna/generative-ai-agents/lm-bridge/internal/stream/redis"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var errNoPrompt = errors.New("flag -p is required (an empty prompt is allowed)")

type options struct {
	prompt string
	id     string
	stream string
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "Usage: producer -p '<prompt>' [-id <id>] [-stream <name>]")
		}
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		log.Error().Err(err).Msg("producer failed")
		os.Exit(1)
	}
}

// parseArgs requires -p to be present but accepts an empty value.
func parseArgs(args []string, output io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("producer", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.prompt, "p", "", "Prompt text to publish")
	fs.StringVar(&opts.id, "id", "", "Request id (generated when empty)")
	fs.StringVar(&opts.stream, "stream", "", "Stream name (defaults to the configured request stream)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	promptSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "p" {
			promptSet = true
		}
	})
	if !promptSet {
		fmt.Fprintln(output, errNoPrompt)
		fs.PrintDefaults()
		return opts, errNoPrompt
	}

	return opts, nil
}

// newPayload encodes the request published under the payload field.
func newPayload(prompt, id string) (string, models.CompletionRequest, error) {
	if id == "" {
		id = uuid.NewString()
	}
	request := models.CompletionRequest{ID: id, Prompt: prompt}

	data, err := json.Marshal(request)
	if err != nil {
		return "", request, err
	}
	return string(data), request, nil
}

func run(opts options) error {
	_ = godotenv.Load()

	cfg, err := setup.LoadConfig()
	if err != nil {
		return err
	}

	stream := opts.stream
	if stream == "" {
		stream = cfg.Redis.RequestStream
	}

	payload, request, err := newPayload(opts.prompt, opts.id)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, err := red.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, 3, &log.Logger)
	if err != nil {
		return err
	}
	defer client.Close()

	msgID, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{streamredis.PayloadField: payload},
	}).Result()
	if err != nil {
		return err
	}

	log.Info().Str("stream", stream).Str("message_id", msgID).Str("request_id", request.ID).Msg("Published successfully!")
	return nil
}
