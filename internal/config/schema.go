package config

import "time"

// Config is the complete bridge configuration
type Config struct {
	Provider   string           `yaml:"provider"`
	LogLevel   string           `yaml:"log_level"`
	LMStudio   LMStudioConfig   `yaml:"lmstudio"`
	Completion CompletionConfig `yaml:"completion"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Bedrock    BedrockConfig    `yaml:"bedrock"`
	Redis      RedisConfig      `yaml:"redis"`
	API        APIConfig        `yaml:"api"`
}

// LMStudioConfig points at the local completions endpoint
type LMStudioConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// CompletionConfig is shared by every provider
type CompletionConfig struct {
	MaxTokens  int    `yaml:"max_tokens"`
	ErrorLabel string `yaml:"error_label"`
	// Zero means no request timeout.
	Timeout    time.Duration `yaml:"timeout"`
	Retry      bool          `yaml:"retry"`
	MaxRetries int           `yaml:"max_retries"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	ModelID string `yaml:"model_id"`
}

type BedrockConfig struct {
	Region  string `yaml:"region"`
	ModelID string `yaml:"model_id"`
}

type RedisConfig struct {
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	RequestStream string `yaml:"request_stream"`
	ResultStream  string `yaml:"result_stream"`
	Group         string `yaml:"group"`
	Consumer      string `yaml:"consumer"`
}

type APIConfig struct {
	Port string `yaml:"port"`
}
