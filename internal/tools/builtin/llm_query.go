// Package builtin provides the tools that ship with the CLI.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"deepcli/internal/llm"
	"deepcli/internal/tools"
)

// Registry keys for the built-in tools.
const (
	LLMQueryKey  = "llmquerytool"
	ReasoningKey = "reasoningengine"
	FIMKey       = "fimcompletiontool"
)

// Supported llmquerytool operations.
const (
	OpChatCompletion = "chat_completion"
	OpJSONCompletion = "json_completion"
)

// LLMQueryTool sends prompts to the chat API through the batching client.
// The json_completion operation requests strict JSON output and returns the
// parsed value alongside the raw text.
type LLMQueryTool struct {
	batcher *llm.Batcher
}

// NewLLMQueryTool builds the tool around an existing batcher.
func NewLLMQueryTool(batcher *llm.Batcher) *LLMQueryTool {
	return &LLMQueryTool{batcher: batcher}
}

func (t *LLMQueryTool) Name() string        { return "llm_query" }
func (t *LLMQueryTool) Description() string { return "Query the language model with a prompt" }

func (t *LLMQueryTool) Capabilities() []string {
	return []string{OpChatCompletion, OpJSONCompletion}
}

func (t *LLMQueryTool) Schema() tools.Schema {
	return tools.Schema{
		Type: "object",
		Properties: map[string]tools.Property{
			"prompt":   {Type: "string", Description: "Prompt to send to the model"},
			"messages": {Type: "array", Description: "Full message list, overrides prompt and system"},
			"operation": {
				Type:        "string",
				Description: "Completion mode",
				Enum:        []any{OpChatCompletion, OpJSONCompletion},
				Default:     OpChatCompletion,
			},
			"system":      {Type: "string", Description: "Optional system prompt"},
			"model":       {Type: "string", Description: "Model override"},
			"temperature": {Type: "number", Description: "Sampling temperature"},
			"max_tokens":  {Type: "integer", Description: "Response token limit"},
		},
	}
}

func (t *LLMQueryTool) Execute(ctx context.Context, params tools.Params) (*tools.Response, error) {
	operation := params.String("operation", OpChatCompletion)
	if operation != OpChatCompletion && operation != OpJSONCompletion {
		return tools.Fail(fmt.Sprintf("unsupported operation %q", operation)), nil
	}

	messages, err := messagesParam(params)
	if err != nil {
		return tools.Fail(err.Error()), nil
	}
	if len(messages) == 0 && params.String("prompt", "") == "" {
		return tools.Fail("missing required parameters: prompt or messages"), nil
	}

	req := llm.Request{
		Model:     params.String("model", ""),
		Messages:  messages,
		Prompt:    params.String("prompt", ""),
		MaxTokens: params.Int("max_tokens", 0),
	}
	if _, ok := params["temperature"]; ok {
		req.Temperature = llm.Temp(params.Float("temperature", 0))
	}
	if system := params.String("system", ""); system != "" && len(messages) == 0 {
		req.Messages = []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: req.Prompt},
		}
	}
	if operation == OpJSONCompletion {
		req.ResponseFormat = "json_object"
	}

	resp, err := t.batcher.Query(ctx, req)
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"response": resp.Content,
		"model":    resp.Model,
		"tokens":   resp.Usage.TotalTokens,
		"raw":      resp.Raw,
	}
	if operation == OpJSONCompletion {
		var parsed any
		if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
			return tools.Fail(fmt.Sprintf("model returned invalid JSON: %v", err)), nil
		}
		data["parsed"] = parsed
	}
	return tools.Ok("query completed", data), nil
}

// messagesParam decodes an optional messages parameter, a list of
// {role, content} objects.
func messagesParam(params tools.Params) ([]llm.Message, error) {
	raw, ok := params["messages"]
	if !ok {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("messages must be a list of {role, content} objects")
	}
	messages := make([]llm.Message, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("messages must be a list of {role, content} objects")
		}
		msg := llm.Message{}
		if role, ok := entry["role"].(string); ok {
			msg.Role = role
		}
		if content, ok := entry["content"].(string); ok {
			msg.Content = content
		}
		if msg.Role == "" || msg.Content == "" {
			return nil, fmt.Errorf("each message needs a role and content")
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
