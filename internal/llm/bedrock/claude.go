package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/llm"
)

const anthropicVersion = "bedrock-2023-05-31"

type messagesRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	Messages         []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

// InvokeModel sends the prompt as a single user message. Only the first text
// block of the answer is returned.
func (c *Client) InvokeModel(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	body, err := json.Marshal(messagesRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        request.MaxTokens,
		Temperature:      request.Temperature,
		Messages:         []message{{Role: "user", Content: request.Prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to serialize claude request: %w", err)
	}

	output, err := c.Client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.ModelID),
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, classify(err)
	}

	var response messagesResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, llm.Malformed("unmarshal bedrock response: %v", err)
	}

	for _, block := range response.Content {
		if block.Type == "" || block.Type == "text" {
			return &llm.LLMResponse{Content: block.Text, StopReason: response.StopReason}, nil
		}
	}
	return nil, llm.Malformed("no text block in response")
}

// classify turns AWS response errors into *llm.StatusError so retry decisions
// follow the same status rules as the other providers.
func classify(err error) error {
	var respErr *awshttp.ResponseError
	if !errors.As(err, &respErr) {
		return fmt.Errorf("unable to invoke claude model: %w", err)
	}

	body := respErr.Error()
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		body = fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}

	return &llm.StatusError{
		StatusCode: respErr.HTTPStatusCode(),
		Body:       body,
	}
}

func (c *Client) InvokeModelWithRetry(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	var lastErr error

	for attempt := 0; attempt < c.MaxRetries; attempt++ {
		response, err := c.InvokeModel(ctx, request)
		if err == nil {
			return response, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, err
		}
		if attempt == c.MaxRetries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff(attempt, c.InitialDelay, c.MaxDelay)):
		}
	}

	return nil, fmt.Errorf("max retries %d exceeded: %w", c.MaxRetries, lastErr)
}

// isRetryableError covers throttling (429), service errors (5xx) and transport failures.
func isRetryableError(err error) bool {
	return llm.IsTransient(err)
}

func backoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	delay := math.Min(float64(initialDelay)*math.Pow(2, float64(attempt)), float64(maxDelay))
	return time.Duration(delay * (0.8 + 0.4*rand.Float64()))
}
