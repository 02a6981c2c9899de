package tools

import (
	"context"
	"fmt"
	"strings"
)

// Tool is the contract every capability implements so the manager can treat
// all tools uniformly. Execute translates expected failures (bad input,
// downstream API errors) into a Response with Success=false; a non-nil error
// is reserved for the programming-error class.
type Tool interface {
	Name() string
	Description() string
	Capabilities() []string
	Schema() Schema
	Execute(ctx context.Context, params Params) (*Response, error)
}

// Schema is a JSON-Schema-like descriptor of the parameters a tool accepts.
// It must be static and side-effect free.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property defines a single parameter
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Enum        []any  `json:"enum,omitempty"`
	Default     any    `json:"default,omitempty"`
}

// Params is the open-ended parameter bag passed to Execute. Tools validate
// and narrow it as the first step of their Execute.
type Params map[string]any

// String returns the string value for key, or def when absent or not a string.
func (p Params) String(key, def string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Int returns the int value for key, accepting JSON-decoded float64 values.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Float returns the float value for key, accepting int values.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	default:
		return def
	}
}

// ValidateParams checks params against the schema's required keys.
func ValidateParams(schema Schema, params Params) error {
	var missing []string
	for _, key := range schema.Required {
		if _, ok := params[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required parameters: %s", strings.Join(missing, ", "))
	}
	return nil
}
