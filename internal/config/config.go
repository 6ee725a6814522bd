package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/lm-bridge/internal/bridge"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/llm/lmstudio"
	"go.yaml.in/yaml/v3"
)

const (
	ProviderLMStudio = "lmstudio"
	ProviderOpenAI   = "openai"
	ProviderBedrock  = "bedrock"

	defaultConfigPath = "configs/bridge.yaml"
)

// Default returns the configuration used when neither a file nor the
// environment says otherwise.
func Default() *Config {
	return &Config{
		Provider: ProviderLMStudio,
		LogLevel: "info",
		LMStudio: LMStudioConfig{
			Endpoint: lmstudio.DefaultEndpoint,
			Model:    lmstudio.DefaultModel,
		},
		Completion: CompletionConfig{
			MaxTokens:  bridge.DefaultMaxTokens,
			ErrorLabel: bridge.DefaultErrorLabel,
			MaxRetries: 3,
		},
		Bedrock: BedrockConfig{
			Region: "us-east-1",
		},
		Redis: RedisConfig{
			Addr:          "localhost:6379",
			RequestStream: "prompt-requests",
			ResultStream:  "prompt-results",
			Group:         "bridge-group",
		},
		API: APIConfig{
			Port: "18080",
		},
	}
}

// Load applies defaults, then the YAML file named by BRIDGE_CONFIG_PATH
// (configs/bridge.yaml when unset, skipped if absent), then environment overrides.
func Load() (*Config, error) {
	cfg := Default()

	path, explicit := os.LookupEnv("BRIDGE_CONFIG_PATH")
	if !explicit || path == "" {
		path = defaultConfigPath
		explicit = false
	}

	if err := loadFile(cfg, path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Provider = getEnv("LLM_PROVIDER", cfg.Provider)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.LMStudio.Endpoint = getEnv("LMSTUDIO_ENDPOINT", cfg.LMStudio.Endpoint)
	cfg.LMStudio.Model = getEnv("LMSTUDIO_MODEL", cfg.LMStudio.Model)

	var err error
	if cfg.Completion.MaxTokens, err = getEnvInt("MAX_TOKENS", cfg.Completion.MaxTokens); err != nil {
		return err
	}
	if cfg.Completion.MaxRetries, err = getEnvInt("MAX_RETRIES", cfg.Completion.MaxRetries); err != nil {
		return err
	}
	if cfg.Completion.Timeout, err = getEnvDuration("REQUEST_TIMEOUT", cfg.Completion.Timeout); err != nil {
		return err
	}
	if cfg.Completion.Retry, err = getEnvBool("RETRY_ENABLED", cfg.Completion.Retry); err != nil {
		return err
	}
	cfg.Completion.ErrorLabel = getEnv("ERROR_LABEL", cfg.Completion.ErrorLabel)

	cfg.OpenAI.APIKey = getEnv("OPEN_AI_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.BaseURL = getEnv("OPEN_AI_BASE_URL", cfg.OpenAI.BaseURL)
	cfg.OpenAI.ModelID = getEnv("OPEN_AI_MODEL_ID", cfg.OpenAI.ModelID)

	cfg.Bedrock.Region = getEnv("AWS_REGION", cfg.Bedrock.Region)
	cfg.Bedrock.ModelID = getEnv("CLAUDE_MODEL_ID", cfg.Bedrock.ModelID)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.RequestStream = getEnv("REQUEST_STREAM", cfg.Redis.RequestStream)
	cfg.Redis.ResultStream = getEnv("RESULT_STREAM", cfg.Redis.ResultStream)
	cfg.Redis.Group = getEnv("CONSUMER_GROUP", cfg.Redis.Group)
	cfg.Redis.Consumer = getEnv("HOSTNAME", cfg.Redis.Consumer)

	cfg.API.Port = getEnv("BRIDGE_API_PORT", cfg.API.Port)
	return nil
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLMStudio:
		if c.LMStudio.Endpoint == "" {
			return errors.New("lmstudio endpoint is required")
		}
		if !strings.HasSuffix(c.LMStudio.Endpoint, "/completions") {
			return fmt.Errorf("lmstudio endpoint must end with /completions, got %q", c.LMStudio.Endpoint)
		}
	case ProviderOpenAI, ProviderBedrock:
	default:
		return fmt.Errorf("unsupported llm provider: %q", c.Provider)
	}

	if c.Completion.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.Completion.MaxTokens)
	}
	if c.Completion.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Completion.Timeout)
	}
	if c.Completion.Retry && c.Completion.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be positive when retry is enabled, got %d", c.Completion.MaxRetries)
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}
