// Package dialect identifies the wire shape of a chat-completion request
// or response: the OpenAI-compatible dialect or the Anthropic-compatible
// (claude) dialect, and auto-detects it from a request body (spec §4.2)
// when the route doesn't pin one explicitly. Grounded on the teacher's
// relay/relaymode package for the "classify a request into an enum"
// shape, generalized from a path-based enum to a content-based one.
package dialect

import (
	"strings"

	"github.com/Laisky/errors/v2"
)

// Dialect is the wire shape a request or response uses.
type Dialect string

const (
	OpenAI Dialect = "openai"
	Claude Dialect = "claude"
)

// String implements fmt.Stringer.
func (d Dialect) String() string {
	return string(d)
}

// Valid reports whether d is one of the two known dialects.
func (d Dialect) Valid() bool {
	return d == OpenAI || d == Claude
}

// Detect infers the source dialect of a request per spec §4.2, given the
// `anthropic-version` header value (empty if absent) and the decoded JSON
// body as a generic map. Falls back to Claude when nothing matches, per
// the spec's explicit fallback rule.
func Detect(anthropicVersionHeader string, body map[string]any) Dialect {
	if strings.TrimSpace(anthropicVersionHeader) != "" {
		return Claude
	}
	if hasAny(body, "anthropic_version", "anthropicVersion") {
		return Claude
	}
	if hasAny(body, "max_completion_tokens", "response_format", "n") {
		return OpenAI
	}

	if d, ok := detectFromTools(body); ok {
		return d
	}
	if d, ok := detectFromToolChoice(body); ok {
		return d
	}
	if d, ok := detectFromMessages(body); ok {
		return d
	}

	if hasAny(body, "system") {
		return Claude
	}

	return Claude
}

func hasAny(body map[string]any, keys ...string) bool {
	for _, k := range keys {
		if v, ok := body[k]; ok && v != nil {
			return true
		}
	}
	return false
}

func detectFromTools(body map[string]any) (Dialect, bool) {
	tools, ok := body["tools"].([]any)
	if !ok {
		return "", false
	}
	for _, t := range tools {
		tm, ok := t.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := tm["input_schema"]; ok {
			return Claude, true
		}
		if v, _ := tm["type"].(string); v == "function" {
			return OpenAI, true
		}
		if _, ok := tm["function"]; ok {
			return OpenAI, true
		}
	}
	return "", false
}

func detectFromToolChoice(body map[string]any) (Dialect, bool) {
	switch tc := body["tool_choice"].(type) {
	case string:
		if tc == "required" || tc == "none" {
			return OpenAI, true
		}
	case map[string]any:
		switch tc["type"] {
		case "function":
			return OpenAI, true
		case "any", "tool":
			return Claude, true
		}
	}
	return "", false
}

func detectFromMessages(body map[string]any) (Dialect, bool) {
	messages, ok := body["messages"].([]any)
	if !ok {
		return "", false
	}
	for _, m := range messages {
		mm, ok := m.(map[string]any)
		if !ok {
			continue
		}
		if role, _ := mm["role"].(string); role == "tool" {
			return OpenAI, true
		}
		if _, ok := mm["tool_call_id"]; ok {
			return OpenAI, true
		}
		if _, ok := mm["tool_calls"]; ok {
			return OpenAI, true
		}

		content, ok := mm["content"].([]any)
		if !ok {
			continue
		}
		for _, blk := range content {
			bm, ok := blk.(map[string]any)
			if !ok {
				continue
			}
			switch bm["type"] {
			case "tool_use", "tool_result", "thinking", "redacted_thinking":
				return Claude, true
			case "image_url", "input_text", "input_image":
				return OpenAI, true
			}
		}
	}
	return "", false
}

// StreamRequested reports whether the decoded body asks for a streaming
// response. Both dialects use a top-level boolean `stream` field, and the
// check is strict for both: a non-bool `stream` (such as the string
// "true") is treated as false.
func StreamRequested(d Dialect, body map[string]any) bool {
	v, ok := body["stream"]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		return false
	}
	return b
}

// Parse converts a dialect name into a Dialect, ignoring case and
// surrounding whitespace, and returns an error for any name other than
// the openai or claude dialect.
func Parse(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(s))) {
	case OpenAI:
		return OpenAI, nil
	case Claude:
		return Claude, nil
	default:
		return "", errors.Errorf("unknown dialect %q", s)
	}
}
