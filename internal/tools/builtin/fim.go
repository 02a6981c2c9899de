package builtin

import (
	"context"
	"fmt"

	"deepcli/internal/llm"
	"deepcli/internal/tools"
)

// FIMTool fills in code between a prefix and a suffix using the beta
// completions endpoint. FIM requests bypass the batcher since the endpoint
// is separate from chat completions.
type FIMTool struct {
	client *llm.Client
}

func NewFIMTool(client *llm.Client) *FIMTool {
	return &FIMTool{client: client}
}

func (t *FIMTool) Name() string { return "fim_completion" }

func (t *FIMTool) Description() string {
	return "Complete code between a prefix and an optional suffix"
}

func (t *FIMTool) Capabilities() []string { return []string{"fill_in_middle"} }

func (t *FIMTool) Schema() tools.Schema {
	return tools.Schema{
		Type: "object",
		Properties: map[string]tools.Property{
			"prefix":     {Type: "string", Description: "Code before the gap"},
			"suffix":     {Type: "string", Description: "Code after the gap"},
			"model":      {Type: "string", Description: "Model override"},
			"max_tokens": {Type: "integer", Description: "Completion token limit"},
		},
		Required: []string{"prefix"},
	}
}

const maxFIMTokens = 4096

func (t *FIMTool) Execute(ctx context.Context, params tools.Params) (*tools.Response, error) {
	if err := tools.ValidateParams(t.Schema(), params); err != nil {
		return tools.Fail(err.Error()), nil
	}
	if limit := params.Int("max_tokens", 0); limit < 0 || limit > maxFIMTokens {
		return tools.Fail(fmt.Sprintf("max_tokens must be between 0 and %d", maxFIMTokens)), nil
	}

	resp, err := t.client.FIMComplete(ctx, llm.FIMRequest{
		Model:     params.String("model", ""),
		Prompt:    params.String("prefix", ""),
		Suffix:    params.String("suffix", ""),
		MaxTokens: params.Int("max_tokens", 0),
	})
	if err != nil {
		return nil, err
	}

	return tools.Ok("completion generated", map[string]any{
		"completion": resp.Content,
		"model":      resp.Model,
	}), nil
}
