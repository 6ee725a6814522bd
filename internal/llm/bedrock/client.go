package bedrock

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type Client struct {
	Client       *bedrockruntime.Client
	ModelID      string
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func NewClient(ctx context.Context, region string, modelID string) (*Client, error) {
	if modelID == "" {
		return nil, fmt.Errorf("Claude model ID is required")
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("Unable to load AWS config: %w", err)
	}

	return newClient(bedrockruntime.NewFromConfig(cfg, withoutSDKRetries), modelID), nil
}

func newClient(runtime *bedrockruntime.Client, modelID string) *Client {
	return &Client{
		Client:       runtime,
		ModelID:      modelID,
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     12 * time.Second,
	}
}

// InvokeModelWithRetry owns the retry policy; the SDK makes one attempt.
func withoutSDKRetries(o *bedrockruntime.Options) {
	o.Retryer = aws.NopRetryer{}
}
