package llm

import "encoding/json"

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one chat completion. Either Messages or Prompt is set;
// a bare Prompt becomes a single user message. Zero values fall back to the
// client defaults; Temperature is a pointer so an explicit 0 survives.
type Request struct {
	Model          string
	Messages       []Message
	Prompt         string
	Temperature    *float64
	MaxTokens      int
	ResponseFormat string // "" or "json_object"
}

// Temp returns a Temperature value for requests.
func Temp(v float64) *float64 { return &v }

// Usage reports token accounting from the downstream API.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the normalized result of a completion call. Raw preserves the
// full downstream response body.
type Response struct {
	Content string          `json:"content"`
	Model   string          `json:"model"`
	Usage   Usage           `json:"usage"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

// FIMRequest describes a fill-in-middle completion against the beta
// completions endpoint.
type FIMRequest struct {
	Model       string
	Prompt      string
	Suffix      string
	Temperature *float64
	MaxTokens   int
}

// messages resolves the effective message list for a request.
func (r Request) messages() []Message {
	if len(r.Messages) > 0 {
		return r.Messages
	}
	return []Message{{Role: "user", Content: r.Prompt}}
}
