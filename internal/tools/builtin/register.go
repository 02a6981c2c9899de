package builtin

import (
	"context"

	"deepcli/internal/llm"
	"deepcli/internal/toolmanager"
	"deepcli/internal/tools"
)

// DefaultRegistry builds the standard tool registry. Factories close over the
// shared batcher and client; no tool is instantiated until first use.
func DefaultRegistry(batcher *llm.Batcher, client *llm.Client) (*toolmanager.Registry, error) {
	registry := toolmanager.NewRegistry()
	entries := []struct {
		key     string
		factory toolmanager.Factory
	}{
		{LLMQueryKey, func(ctx context.Context) (tools.Tool, error) {
			return NewLLMQueryTool(batcher), nil
		}},
		{ReasoningKey, func(ctx context.Context) (tools.Tool, error) {
			return NewReasoningTool(batcher), nil
		}},
		{FIMKey, func(ctx context.Context) (tools.Tool, error) {
			return NewFIMTool(client), nil
		}},
	}
	for _, entry := range entries {
		if err := registry.Register(entry.key, entry.factory); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
