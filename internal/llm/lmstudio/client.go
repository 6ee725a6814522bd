package lmstudio

import (
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
)

const (
	// DefaultEndpoint is the completions endpoint of a local LM Studio server.
	DefaultEndpoint = "http://localhost:1234/v1/completions"
	DefaultModel    = "yandexgpt-5-lite-8b-instruct"

	completionsPath = "completions"
)

type Config struct {
	Endpoint string
	Model    string
	// Timeout bounds one HTTP round-trip. Zero leaves the client unbounded.
	Timeout      time.Duration
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

type Client struct {
	Client       openai.Client
	Endpoint     string
	ModelID      string
	Timeout      time.Duration
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	logger       *zerolog.Logger
}

func NewClient(cfg Config, logger *zerolog.Logger) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	initialDelay := cfg.InitialDelay
	if initialDelay <= 0 {
		initialDelay = 100 * time.Millisecond
	}
	maxDelay := cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 12 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	c := &Client{
		Endpoint:     endpoint,
		ModelID:      model,
		Timeout:      cfg.Timeout,
		MaxRetries:   maxRetries,
		InitialDelay: initialDelay,
		MaxDelay:     maxDelay,
		logger:       logger,
	}

	// The SDK does its own retries; InvokeModelWithRetry owns that policy here.
	opts := []option.RequestOption{
		option.WithBaseURL(BaseURL(endpoint)),
		option.WithMaxRetries(0),
		option.WithMiddleware(c.exchange),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	c.Client = openai.NewClient(opts...)

	return c
}

// BaseURL strips the trailing "completions" segment so the SDK can append it again.
func BaseURL(endpoint string) string {
	return strings.TrimSuffix(endpoint, completionsPath)
}
