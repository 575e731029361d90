// Package openaiclaude implements translate.Translator for the
// openai<->claude dialect pair: the only pair this gateway needs (spec
// §1). Grounded on
// _examples/other_examples/081dff73_envoyproxy-ai-gateway__internal-translator-anthropic_openai.go.go's
// shape (per-direction request/response conversion functions plus a
// streaming accumulator), re-expressed over generic JSON maps instead
// of typed SDK structs, since this gateway never invents wire fields
// and has no generated client SDK to bind to.
package openaiclaude

import (
	"encoding/json"
)

// textBlock builds a claude-style {"type":"text","text":...} block.
func textBlock(text string) map[string]any {
	return map[string]any{"type": "text", "text": text}
}

// openAIContentToText flattens an openai message's `content` field
// (string, or array of {type:"text"|"input_text", text} plus
// image/other blocks which are dropped for claude's plain-text
// concatenation) into a single string, per spec §4.9's "arrays flatten
// text|input_text" rule.
func openAIContentToText(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []any:
		var b []byte
		for _, item := range c {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			switch m["type"] {
			case "text", "input_text":
				if s, ok := m["text"].(string); ok {
					b = append(b, s...)
				}
			}
		}
		return string(b)
	default:
		return ""
	}
}

// claudeContentToBlocks normalizes a claude message's `content` field
// (string or block array) into a block array, so callers handle one shape.
func claudeContentToBlocks(content any) []map[string]any {
	switch c := content.(type) {
	case string:
		return []map[string]any{textBlock(c)}
	case []any:
		out := make([]map[string]any, 0, len(c))
		for _, item := range c {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

// parseToolArguments decodes an openai tool call's JSON-string
// arguments into an object, returning an empty object on parse
// failure (spec §4.9 "empty object on failure").
func parseToolArguments(raw string) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

// marshalToolInput serializes a claude tool_use block's `input` object
// back into an openai tool call's JSON-string arguments.
func marshalToolInput(input any) string {
	if input == nil {
		return "{}"
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}
