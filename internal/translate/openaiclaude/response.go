package openaiclaude

import (
	"github.com/Laisky/errors/v2"

	"github.com/Laisky/llm-router/internal/dialect"
	"github.com/Laisky/llm-router/internal/translate"
)

// TranslateResponse implements translate.Translator's non-stream
// response conversion (spec §4.9).
func (Translator) TranslateResponse(source, target dialect.Dialect, body translate.Body) (translate.Body, error) {
	if source == target {
		return body, nil
	}
	switch target {
	case dialect.Claude:
		return openAIResponseToClaude(body), nil
	case dialect.OpenAI:
		return claudeResponseToOpenAI(body), nil
	default:
		return nil, errors.Errorf("unsupported target dialect %q", target)
	}
}

// openAIResponseToClaude implements spec §4.9's openai -> claude
// non-stream mapping exactly.
func openAIResponseToClaude(body translate.Body) translate.Body {
	choices := asSlice(body["choices"])
	var message map[string]any
	var finishReason string
	if len(choices) > 0 {
		c0 := asMap(choices[0])
		message = asMap(c0["message"])
		finishReason = asString(c0["finish_reason"])
	}

	var content []any
	if text := openAIContentToText(message["content"]); text != "" {
		content = append(content, textBlock(text))
	}
	for _, tc := range asSlice(message["tool_calls"]) {
		tcm := asMap(tc)
		if tcm == nil {
			continue
		}
		fn := asMap(tcm["function"])
		content = append(content, map[string]any{
			"type":  "tool_use",
			"id":    asString(tcm["id"]),
			"name":  asString(fn["name"]),
			"input": parseToolArguments(asString(fn["arguments"])),
		})
	}
	if len(content) == 0 {
		content = []any{textBlock("")}
	}

	usage := asMap(body["usage"])

	return translate.Body{
		"id":            asString(body["id"]),
		"type":          "message",
		"role":          "assistant",
		"model":         asString(body["model"]),
		"content":       content,
		"stop_reason":   mapOpenAIFinishReason(finishReason),
		"stop_sequence": nil,
		"usage": map[string]any{
			"input_tokens":  intField(usage, "prompt_tokens"),
			"output_tokens": intField(usage, "completion_tokens"),
		},
	}
}

func mapOpenAIFinishReason(r string) string {
	switch r {
	case "tool_calls":
		return "tool_use"
	case "length":
		return "max_tokens"
	case "stop", "":
		return "end_turn"
	default:
		return "end_turn"
	}
}

// claudeResponseToOpenAI is TranslateResponse's inverse: same contract,
// mapping claude's MessagesResponse shape onto an openai
// ChatCompletion response.
func claudeResponseToOpenAI(body translate.Body) translate.Body {
	blocks := claudeContentToBlocks(body["content"])

	var textParts string
	var toolCalls []any
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
		}
	}

	message := map[string]any{"role": "assistant", "content": textParts}
	if len(toolCalls) > 0 {
		message["tool_calls"] = toolCalls
		if textParts == "" {
			message["content"] = nil
		}
	}

	usage := asMap(body["usage"])

	return translate.Body{
		"id":     asString(body["id"]),
		"object": "chat.completion",
		"model":  asString(body["model"]),
		"choices": []any{map[string]any{
			"index":         0,
			"message":       message,
			"finish_reason": mapClaudeStopReason(asString(body["stop_reason"])),
		}},
		"usage": map[string]any{
			"prompt_tokens":     intField(usage, "input_tokens"),
			"completion_tokens": intField(usage, "output_tokens"),
			"total_tokens":      intField(usage, "input_tokens") + intField(usage, "output_tokens"),
		},
	}
}

func mapClaudeStopReason(r string) string {
	switch r {
	case "tool_use":
		return "tool_calls"
	case "max_tokens":
		return "length"
	case "end_turn", "stop_sequence", "":
		return "stop"
	default:
		return "stop"
	}
}

func intField(m map[string]any, key string) int {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
