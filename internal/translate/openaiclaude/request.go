package openaiclaude

import (
	"github.com/Laisky/errors/v2"

	"github.com/Laisky/llm-router/internal/dialect"
	"github.com/Laisky/llm-router/internal/translate"
)

const defaultClaudeMaxTokens = 1024

// TranslateRequest implements translate.Translator. A same-dialect body
// is returned as is; a translated body carries no model field. The
// provider adaptor sets model separately (spec §4.5 step 2).
func (Translator) TranslateRequest(source, target dialect.Dialect, _ string, body translate.Body, stream bool) (translate.Body, error) {
	if source == target {
		return body, nil
	}
	switch target {
	case dialect.Claude:
		return openAIRequestToClaude(body, stream)
	case dialect.OpenAI:
		return claudeRequestToOpenAI(body, stream)
	default:
		return nil, errors.Errorf("unsupported target dialect %q", target)
	}
}

func openAIRequestToClaude(body translate.Body, stream bool) (translate.Body, error) {
	messages := asSlice(body["messages"])

	var systemParts []string
	claudeMessages := make([]any, 0, len(messages))

	for _, raw := range messages {
		m := asMap(raw)
		if m == nil {
			continue
		}
		role := asString(m["role"])

		switch role {
		case "system":
			if s := openAIContentToText(m["content"]); s != "" {
				systemParts = append(systemParts, s)
			}
		case "tool":
			claudeMessages = append(claudeMessages, map[string]any{
				"role": "user",
				"content": []any{map[string]any{
					"type":        "tool_result",
					"tool_use_id": asString(m["tool_call_id"]),
					"content":     openAIContentToText(m["content"]),
				}},
			})
		case "assistant":
			blocks := []any{}
			if text := openAIContentToText(m["content"]); text != "" {
				blocks = append(blocks, textBlock(text))
			}
			for _, tc := range asSlice(m["tool_calls"]) {
				tcm := asMap(tc)
				if tcm == nil {
					continue
				}
				fn := asMap(tcm["function"])
				blocks = append(blocks, map[string]any{
					"type":  "tool_use",
					"id":    asString(tcm["id"]),
					"name":  asString(fn["name"]),
					"input": parseToolArguments(asString(fn["arguments"])),
				})
			}
			if len(blocks) == 0 {
				blocks = append(blocks, textBlock(""))
			}
			claudeMessages = append(claudeMessages, map[string]any{"role": "assistant", "content": blocks})
		default: // "user"
			claudeMessages = append(claudeMessages, map[string]any{
				"role":    "user",
				"content": []any{textBlock(openAIContentToText(m["content"]))},
			})
		}
	}

	out := translate.Body{
		"messages": claudeMessages,
		"stream":   stream,
	}
	if len(systemParts) > 0 {
		out["system"] = joinStrings(systemParts, "\n\n")
	}

	if mt, ok := numericField(body, "max_tokens"); ok {
		out["max_tokens"] = mt
	} else if mt, ok := numericField(body, "max_completion_tokens"); ok {
		out["max_tokens"] = mt
	} else {
		out["max_tokens"] = defaultClaudeMaxTokens
	}

	copyNumericField(body, out, "temperature")
	copyNumericField(body, out, "top_p")

	if stop, ok := body["stop"]; ok {
		switch s := stop.(type) {
		case string:
			out["stop_sequences"] = []any{s}
		case []any:
			out["stop_sequences"] = s
		}
	}

	if tools := asSlice(body["tools"]); len(tools) > 0 {
		claudeTools := make([]any, 0, len(tools))
		for _, t := range tools {
			tm := asMap(t)
			if tm == nil {
				continue
			}
			fn := asMap(tm["function"])
			if fn == nil {
				continue
			}
			claudeTools = append(claudeTools, map[string]any{
				"name":         asString(fn["name"]),
				"description":  asString(fn["description"]),
				"input_schema": fn["parameters"],
			})
		}
		out["tools"] = claudeTools
	}

	if tc, ok := body["tool_choice"]; ok {
		out["tool_choice"] = openAIToolChoiceToClaude(tc)
	}

	return out, nil
}

func claudeRequestToOpenAI(body translate.Body, stream bool) (translate.Body, error) {
	var openAIMessages []any

	if sys, ok := body["system"]; ok {
		var text string
		switch s := sys.(type) {
		case string:
			text = s
		case []any:
			for _, b := range s {
				bm := asMap(b)
				if t, ok := bm["text"].(string); ok {
					if text != "" {
						text += "\n\n"
					}
					text += t
				}
			}
		}
		if text != "" {
			openAIMessages = append(openAIMessages, map[string]any{"role": "system", "content": text})
		}
	}

	for _, raw := range asSlice(body["messages"]) {
		m := asMap(raw)
		if m == nil {
			continue
		}
		role := asString(m["role"])
		blocks := claudeContentToBlocks(m["content"])

		var textParts string
		var toolCalls []any
		var toolResults []any
		for _, b := range blocks {
			switch b["type"] {
			case "text":
				textParts += asString(b["text"])
			case "tool_use":
				toolCalls = append(toolCalls, map[string]any{
					"id":   asString(b["id"]),
					"type": "function",
					"function": map[string]any{
						"name":      asString(b["name"]),
						"arguments": marshalToolInput(b["input"]),
					},
				})
			case "tool_result":
				toolResults = append(toolResults, map[string]any{
					"role":         "tool",
					"tool_call_id": asString(b["tool_use_id"]),
					"content":      claudeToolResultText(b["content"]),
				})
			}
		}

		if len(toolResults) > 0 {
			openAIMessages = append(openAIMessages, toolResults...)
			continue
		}

		msg := map[string]any{"role": role, "content": textParts}
		if len(toolCalls) > 0 {
			msg["tool_calls"] = toolCalls
			if textParts == "" {
				msg["content"] = nil
			}
		}
		openAIMessages = append(openAIMessages, msg)
	}

	out := translate.Body{
		"messages": openAIMessages,
		"stream":   stream,
	}

	copyField(body, out, "max_tokens")
	copyNumericField(body, out, "temperature")
	copyNumericField(body, out, "top_p")

	if seqs := asSlice(body["stop_sequences"]); len(seqs) > 0 {
		out["stop"] = seqs
	}

	if tools := asSlice(body["tools"]); len(tools) > 0 {
		openAITools := make([]any, 0, len(tools))
		for _, t := range tools {
			tm := asMap(t)
			if tm == nil {
				continue
			}
			openAITools = append(openAITools, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        asString(tm["name"]),
					"description": asString(tm["description"]),
					"parameters":  tm["input_schema"],
				},
			})
		}
		out["tools"] = openAITools
	}

	if tc, ok := body["tool_choice"]; ok {
		out["tool_choice"] = claudeToolChoiceToOpenAI(tc)
	}

	return out, nil
}

func claudeToolResultText(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []any:
		var text string
		for _, item := range c {
			if m, ok := item.(map[string]any); ok && m["type"] == "text" {
				text += asString(m["text"])
			}
		}
		return text
	default:
		return ""
	}
}

func openAIToolChoiceToClaude(tc any) any {
	switch v := tc.(type) {
	case string:
		switch v {
		case "required":
			return map[string]any{"type": "any"}
		case "none":
			return map[string]any{"type": "none"}
		default: // "auto"
			return map[string]any{"type": "auto"}
		}
	case map[string]any:
		if fn := asMap(v["function"]); fn != nil {
			return map[string]any{"type": "tool", "name": asString(fn["name"])}
		}
	}
	return map[string]any{"type": "auto"}
}

func claudeToolChoiceToOpenAI(tc any) any {
	m := asMap(tc)
	if m == nil {
		return "auto"
	}
	switch m["type"] {
	case "any":
		return "required"
	case "none":
		return "none"
	case "tool":
		return map[string]any{"type": "function", "function": map[string]any{"name": asString(m["name"])}}
	default:
		return "auto"
	}
}

func numericField(body translate.Body, key string) (float64, bool) {
	v, ok := body[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func copyNumericField(src, dst translate.Body, key string) {
	if v, ok := numericField(src, key); ok {
		dst[key] = v
	}
}

func copyField(src, dst translate.Body, key string) {
	if v, ok := src[key]; ok {
		dst[key] = v
	}
}

func joinStrings(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}
