package builtin

import (
	"context"
	"fmt"
	"strings"

	"deepcli/internal/llm"
	"deepcli/internal/tools"
)

// Supported reasoningengine operations.
const (
	OpAnalyze     = "analyze"
	OpQuickAnswer = "quick_answer"
)

const analyzeSystemPrompt = `You are a careful reasoning assistant.
Work through the problem step by step before stating a conclusion.
Structure the answer as numbered steps followed by a final "Conclusion:" line.`

const quickAnswerSystemPrompt = `You are a concise assistant.
Answer the question directly in a short paragraph, no preamble.`

// ReasoningTool asks the model to reason through a problem, either as a
// structured step-by-step analysis or a quick direct answer, optionally
// grounded in caller-provided context.
type ReasoningTool struct {
	batcher *llm.Batcher
}

func NewReasoningTool(batcher *llm.Batcher) *ReasoningTool {
	return &ReasoningTool{batcher: batcher}
}

func (t *ReasoningTool) Name() string { return "reasoning" }

func (t *ReasoningTool) Description() string {
	return "Reason through a problem step by step or answer it directly"
}

func (t *ReasoningTool) Capabilities() []string {
	return []string{OpAnalyze, OpQuickAnswer}
}

func (t *ReasoningTool) Schema() tools.Schema {
	return tools.Schema{
		Type: "object",
		Properties: map[string]tools.Property{
			"problem": {Type: "string", Description: "Problem statement to reason about"},
			"operation": {
				Type:        "string",
				Description: "Reasoning mode",
				Enum:        []any{OpAnalyze, OpQuickAnswer},
				Default:     OpAnalyze,
			},
			"context": {Type: "string", Description: "Optional background the reasoning should use"},
		},
		Required: []string{"problem"},
	}
}

func (t *ReasoningTool) Execute(ctx context.Context, params tools.Params) (*tools.Response, error) {
	if err := tools.ValidateParams(t.Schema(), params); err != nil {
		return tools.Fail(err.Error()), nil
	}

	operation := params.String("operation", OpAnalyze)
	system := analyzeSystemPrompt
	switch operation {
	case OpAnalyze:
	case OpQuickAnswer:
		system = quickAnswerSystemPrompt
	default:
		return tools.Fail(fmt.Sprintf("unsupported operation %q", operation)), nil
	}

	var prompt strings.Builder
	if background := params.String("context", ""); background != "" {
		prompt.WriteString("Context:\n")
		prompt.WriteString(background)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("Problem:\n")
	prompt.WriteString(params.String("problem", ""))

	resp, err := t.batcher.Query(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt.String()},
		},
	})
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"reasoning": resp.Content,
		"operation": operation,
		"model":     resp.Model,
	}
	if operation == OpAnalyze {
		if idx := strings.LastIndex(resp.Content, "Conclusion:"); idx >= 0 {
			data["conclusion"] = strings.TrimSpace(resp.Content[idx+len("Conclusion:"):])
		}
	}
	return tools.Ok("reasoning completed", data), nil
}
