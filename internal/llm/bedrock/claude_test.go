package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	runtime := bedrockruntime.New(bedrockruntime.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(server.URL),
		Credentials:  aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIDTEST", SecretAccessKey: "secret"}, nil
		}),
	}, withoutSDKRetries)

	client := newClient(runtime, "anthropic.claude-test")
	client.InitialDelay = time.Millisecond
	client.MaxDelay = 5 * time.Millisecond
	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func writeAWSError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("X-Amzn-ErrorType", code)
	writeJSON(w, status, `{"message":"`+code+` raised"}`)
}

func TestInvokeModel_SendsUserMessage(t *testing.T) {
	var gotPath string
	var gotBody messagesRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		writeJSON(w, http.StatusOK, `{"content":[{"type":"text","text":"hi"}],"stop_reason":"end_turn"}`)
	})

	resp, err := client.InvokeModel(context.Background(), llm.LLMRequest{Prompt: "hello", MaxTokens: 50})
	if err != nil {
		t.Fatalf("InvokeModel failed: %v", err)
	}

	if !strings.HasSuffix(gotPath, "/invoke") || !strings.Contains(gotPath, "anthropic.claude-test") {
		t.Errorf("Unexpected path %s", gotPath)
	}
	if gotBody.AnthropicVersion != anthropicVersion || gotBody.MaxTokens != 50 {
		t.Errorf("Unexpected request %+v", gotBody)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Role != "user" || gotBody.Messages[0].Content != "hello" {
		t.Errorf("Unexpected messages %+v", gotBody.Messages)
	}
	if resp.Content != "hi" || resp.StopReason != "end_turn" {
		t.Errorf("Unexpected response %+v", resp)
	}
}

func TestInvokeModel_Errors(t *testing.T) {
	tests := []struct {
		name          string
		handler       http.HandlerFunc
		wantMalformed bool
		wantStatus    int
	}{
		{
			name:          "no content",
			handler:       func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, `{"content":[],"stop_reason":"end_turn"}`) },
			wantMalformed: true,
		},
		{
			name:          "only tool blocks",
			handler:       func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, `{"content":[{"type":"tool_use"}]}`) },
			wantMalformed: true,
		},
		{
			name:          "invalid json",
			handler:       func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, `not json`) },
			wantMalformed: true,
		},
		{
			name:       "service error",
			handler:    func(w http.ResponseWriter, r *http.Request) { writeAWSError(w, http.StatusInternalServerError, "InternalServerException") },
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "validation error",
			handler:    func(w http.ResponseWriter, r *http.Request) { writeAWSError(w, http.StatusBadRequest, "ValidationException") },
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)

			_, err := client.InvokeModel(context.Background(), llm.LLMRequest{Prompt: "p", MaxTokens: 50})
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if tt.wantMalformed != errors.Is(err, llm.ErrMalformedResponse) {
				t.Errorf("Malformed = %v, want %v: %v", !tt.wantMalformed, tt.wantMalformed, err)
			}
			if tt.wantStatus != 0 {
				var statusErr *llm.StatusError
				if !errors.As(err, &statusErr) {
					t.Fatalf("Expected *llm.StatusError, got %T: %v", err, err)
				}
				if statusErr.StatusCode != tt.wantStatus {
					t.Errorf("Expected status %d, got %d", tt.wantStatus, statusErr.StatusCode)
				}
			}
		})
	}
}

func TestInvokeModelWithRetry_RecoversFromThrottling(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeAWSError(w, http.StatusTooManyRequests, "ThrottlingException")
			return
		}
		writeJSON(w, http.StatusOK, `{"content":[{"type":"text","text":"finally"}]}`)
	})

	resp, err := client.InvokeModelWithRetry(context.Background(), llm.LLMRequest{Prompt: "p", MaxTokens: 50})
	if err != nil {
		t.Fatalf("InvokeModelWithRetry failed: %v", err)
	}
	if resp.Content != "finally" {
		t.Errorf("Expected 'finally', got '%s'", resp.Content)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 calls, got %d", calls.Load())
	}
}

func TestInvokeModelWithRetry_DoesNotRetryValidationOrMalformed(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter)
	}{
		{name: "validation", handler: func(w http.ResponseWriter) { writeAWSError(w, http.StatusBadRequest, "ValidationException") }},
		{name: "malformed", handler: func(w http.ResponseWriter) { writeJSON(w, http.StatusOK, `{"content":[]}`) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.handler(w)
			})

			if _, err := client.InvokeModelWithRetry(context.Background(), llm.LLMRequest{Prompt: "p", MaxTokens: 50}); err == nil {
				t.Fatal("Expected error, got nil")
			}
			if calls.Load() != 1 {
				t.Errorf("Expected 1 call, got %d", calls.Load())
			}
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "malformed", err: llm.Malformed("empty"), want: false},
		{name: "cancelled", err: context.Canceled, want: false},
		{name: "throttled", err: &llm.StatusError{StatusCode: http.StatusTooManyRequests}, want: true},
		{name: "unavailable", err: &llm.StatusError{StatusCode: http.StatusServiceUnavailable}, want: true},
		{name: "validation", err: &llm.StatusError{StatusCode: http.StatusBadRequest}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
