package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/povarna/generative-ai-agents/lm-bridge/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type fakeStreamClient struct {
	groupErr error
	addErr   error
	added    []*redis.XAddArgs
	acked    []string
}

func (f *fakeStreamClient) XGroupCreateMkStream(_ context.Context, _, _, _ string) *redis.StatusCmd {
	return redis.NewStatusResult("OK", f.groupErr)
}

func (f *fakeStreamClient) XReadGroup(_ context.Context, _ *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
}

func (f *fakeStreamClient) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.added = append(f.added, a)
	return redis.NewStringResult("1-0", f.addErr)
}

func (f *fakeStreamClient) XAck(_ context.Context, _, _ string, ids ...string) *redis.IntCmd {
	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func (f *fakeStreamClient) Close() error { return nil }

type stubCompleter struct {
	outcome  models.Outcome
	received []models.CompletionRequest
}

func (s *stubCompleter) Execute(_ context.Context, request models.CompletionRequest) models.CompletionResult {
	s.received = append(s.received, request)
	return models.CompletionResult{ID: request.ID, Prompt: request.Prompt, Text: "pong", Outcome: s.outcome}
}

func newTestConsumer(client *fakeStreamClient, completer *stubCompleter) *Consumer {
	logger := zerolog.Nop()
	cfg := NewRedisStreamConfig("localhost:6379", "", "prompt-requests", "prompt-results", "bridge-group", "test")
	return NewConsumer(client, cfg, completer, &logger)
}

func TestConsumer_ProcessPublishesAndAcks(t *testing.T) {
	client := &fakeStreamClient{}
	completer := &stubCompleter{outcome: models.OutcomeAnswered}
	c := newTestConsumer(client, completer)

	c.process(context.Background(), redis.XMessage{
		ID:     "5-0",
		Values: map[string]any{PayloadField: `{"id":"req-1","prompt":"ping"}`},
	})

	if len(completer.received) != 1 || completer.received[0].Prompt != "ping" {
		t.Fatalf("unexpected requests: %+v", completer.received)
	}
	if len(client.added) != 1 {
		t.Fatalf("expected one published result, got %d", len(client.added))
	}
	if client.added[0].Stream != "prompt-results" {
		t.Errorf("published to %q", client.added[0].Stream)
	}

	values := client.added[0].Values.(map[string]any)
	var result models.CompletionResult
	if err := json.Unmarshal([]byte(values[PayloadField].(string)), &result); err != nil {
		t.Fatalf("result payload is not JSON: %v", err)
	}
	if result.ID != "req-1" || result.Text != "pong" || result.Outcome != models.OutcomeAnswered {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(client.acked) != 1 || client.acked[0] != "5-0" {
		t.Errorf("expected ack of 5-0, got %v", client.acked)
	}
}

func TestConsumer_ProcessUsesMessageIDWhenRequestHasNone(t *testing.T) {
	client := &fakeStreamClient{}
	completer := &stubCompleter{outcome: models.OutcomeAnswered}
	c := newTestConsumer(client, completer)

	c.process(context.Background(), redis.XMessage{
		ID:     "7-1",
		Values: map[string]any{PayloadField: `{"prompt":"hi"}`},
	})

	if completer.received[0].ID != "7-1" {
		t.Errorf("expected message ID as request ID, got %q", completer.received[0].ID)
	}
}

func TestConsumer_ProcessSkipsBadMessages(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{name: "missing payload", values: map[string]any{"other": "x"}},
		{name: "invalid json", values: map[string]any{PayloadField: "{not json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeStreamClient{}
			completer := &stubCompleter{outcome: models.OutcomeAnswered}
			c := newTestConsumer(client, completer)

			c.process(context.Background(), redis.XMessage{ID: "9-0", Values: tt.values})

			if len(completer.received) != 0 {
				t.Errorf("bad message must not reach the completer")
			}
			if len(client.added) != 0 {
				t.Errorf("bad message must not publish a result")
			}
			if len(client.acked) != 1 {
				t.Errorf("bad message must be acked, got %v", client.acked)
			}
		})
	}
}

func TestConsumer_ProcessLeavesCancelledPending(t *testing.T) {
	client := &fakeStreamClient{}
	completer := &stubCompleter{outcome: models.OutcomeCancelled}
	c := newTestConsumer(client, completer)

	c.process(context.Background(), redis.XMessage{
		ID:     "3-0",
		Values: map[string]any{PayloadField: `{"prompt":"slow"}`},
	})

	if len(client.added) != 0 || len(client.acked) != 0 {
		t.Errorf("cancelled completion must stay pending: added=%d acked=%v", len(client.added), client.acked)
	}
}

func TestConsumer_ProcessDoesNotAckWhenPublishFails(t *testing.T) {
	client := &fakeStreamClient{addErr: errors.New("connection reset")}
	completer := &stubCompleter{outcome: models.OutcomeRecovered}
	c := newTestConsumer(client, completer)

	c.process(context.Background(), redis.XMessage{
		ID:     "4-0",
		Values: map[string]any{PayloadField: `{"prompt":"x"}`},
	})

	if len(client.acked) != 0 {
		t.Errorf("expected no ack after publish failure, got %v", client.acked)
	}
}

func TestConsumer_Setup(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "created", err: nil},
		{name: "group exists", err: errors.New("BUSYGROUP Consumer Group name already exists")},
		{name: "other failure", err: errors.New("NOAUTH Authentication required"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestConsumer(&fakeStreamClient{groupErr: tt.err}, &stubCompleter{})
			err := c.Setup(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Setup() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConsumer_StartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestConsumer(&fakeStreamClient{}, &stubCompleter{})
	if err := c.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewRedisStreamConfig_GeneratesConsumerName(t *testing.T) {
	a := NewRedisStreamConfig("addr", "", "in", "out", "g", "")
	b := NewRedisStreamConfig("addr", "", "in", "out", "g", "")
	if a.ConsumerName == "" || a.ConsumerName == b.ConsumerName {
		t.Errorf("expected unique generated names, got %q and %q", a.ConsumerName, b.ConsumerName)
	}

	named := NewRedisStreamConfig("addr", "", "in", "out", "g", "worker-1")
	if named.ConsumerName != "worker-1" {
		t.Errorf("expected explicit name kept, got %q", named.ConsumerName)
	}
}
