package mcpadapter

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/lm-bridge/internal/models"
)

const ToolName = "complete_prompt"

// CompletePromptInput is the MCP tool input schema (matches HTTP API field names).
type CompletePromptInput struct {
	ID     string `json:"id,omitempty" jsonschema:"optional request identifier"`
	Prompt string `json:"prompt" jsonschema:"prompt forwarded verbatim to the local model server"`
}

type Completer interface {
	Execute(ctx context.Context, request models.CompletionRequest) models.CompletionResult
}

// NewCompletePromptHandler returns a tool handler that uses the given completer.
// Pass the returned function to mcp.AddTool.
func NewCompletePromptHandler(completer Completer) func(context.Context, *mcp.CallToolRequest, CompletePromptInput) (*mcp.CallToolResult, models.CompletionResult, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CompletePromptInput) (*mcp.CallToolResult, models.CompletionResult, error) {
		return CompletePrompt(ctx, completer, req, input)
	}
}

// CompletePrompt forwards the prompt and returns the result. Malformed and
// cancelled outcomes are reported as tool errors, everything else as content.
func CompletePrompt(
	ctx context.Context,
	completer Completer,
	req *mcp.CallToolRequest,
	input CompletePromptInput,
) (*mcp.CallToolResult, models.CompletionResult, error) {
	result := completer.Execute(ctx, models.CompletionRequest{
		ID:     input.ID,
		Prompt: input.Prompt,
	})

	if !result.Succeeded() {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: result.Error}},
		}, result, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: result.Text}},
	}, result, nil
}

// NewServer registers the completion tool on a fresh MCP server.
func NewServer(completer Completer, version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "lm-bridge",
			Version: version,
		}, nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolName,
		Description: "Send a prompt to the local LM Studio completions endpoint and return the generated text",
	}, NewCompletePromptHandler(completer))

	return server
}
