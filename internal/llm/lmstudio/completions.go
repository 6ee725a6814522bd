package lmstudio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/llm"
)

const maxErrorBody = 512

// transportError marks a failure before any response arrived.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func (c *Client) InvokeModel(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	c.logger.Debug().
		Str("endpoint", c.Endpoint).
		Str("model", c.ModelID).
		Int("max_tokens", request.MaxTokens).
		Msg("sending completion request")

	completion, err := c.Client.Completions.New(ctx, openai.CompletionNewParams{
		Model: openai.CompletionNewParamsModel(c.ModelID),
		Prompt: openai.CompletionNewParamsPromptUnion{
			OfString: openai.String(request.Prompt),
		},
		MaxTokens: openai.Int(int64(request.MaxTokens)),
	})
	if err != nil {
		return nil, classify(err)
	}

	if len(completion.Choices) == 0 {
		return nil, llm.Malformed("no choices in response")
	}
	first := completion.Choices[0]
	if !first.JSON.Text.Valid() {
		return nil, llm.Malformed("choice 0 has no text")
	}

	return &llm.LLMResponse{
		Content:    first.Text,
		StopReason: string(first.FinishReason),
	}, nil
}

// classify sorts SDK errors into status, transport, cancellation and
// malformed body failures.
func classify(err error) error {
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		return statusErr
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &llm.StatusError{StatusCode: apiErr.StatusCode, Body: apiErr.Message}
	}

	var netErr *transportError
	if errors.As(err, &netErr) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("completion request failed: %w", err)
	}

	// A response arrived but could not be decoded.
	return llm.Malformed("decode body: %v", err)
}

// exchange sends the request the way LM Studio expects it and turns failing
// statuses into *llm.StatusError before the SDK looks at the body.
func (c *Client) exchange(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	req.Header.Del("Authorization")

	resp, err := next(req)
	if err != nil {
		return nil, &transportError{err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
		return nil, &llm.StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        c.Endpoint,
			Body:       snippet(body),
		}
	}

	// The body is JSON whatever content type the server declares.
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

func (c *Client) InvokeModelWithRetry(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	var lastErr error

	for attempt := 0; attempt < c.MaxRetries; attempt++ {
		response, err := c.InvokeModel(ctx, request)
		if err == nil {
			return response, nil
		}

		lastErr = err

		if !llm.IsTransient(err) {
			return nil, err
		}

		if attempt == c.MaxRetries-1 {
			break
		}

		delay := calculateBackoff(attempt, c.InitialDelay, c.MaxDelay)
		c.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Msg("completion request failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("max retries %d exceeded: %w", c.MaxRetries, lastErr)
}

func calculateBackoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	backoff := float64(initialDelay) * math.Pow(2, float64(attempt))

	if backoff > float64(maxDelay) {
		backoff = float64(maxDelay)
	}

	jitter := backoff * 0.2 * (2*rand.Float64() - 1) // between -20% and +20%
	backoff += jitter

	return time.Duration(backoff)
}

func snippet(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
