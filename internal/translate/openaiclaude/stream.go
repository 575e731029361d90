package openaiclaude

import "github.com/Laisky/llm-router/internal/translate"

// DoneSentinel is the value ClaudeEventToOpenAIChunks returns in place
// of a Body to signal the openai terminator frame (spec §4.8).
const DoneSentinel = "[DONE]"

// TranslateStreamChunk implements the openai-upstream -> claude-client
// direction of spec §4.8.
func (Translator) TranslateStreamChunk(chunk translate.Body, state *translate.StreamState) []translate.StreamEvent {
	var events []translate.StreamEvent

	if !state.MessageStarted {
		state.MessageStarted = true
		state.ToolCallIndex = map[int]int{}
		state.AccumulatedToolArgs = map[int]string{}
		events = append(events, translate.StreamEvent{
			Type: "message_start",
			Data: map[string]any{
				"type": "message_start",
				"message": map[string]any{
					"id":      asString(chunk["id"]),
					"type":    "message",
					"role":    "assistant",
					"model":   state.ResponseModel,
					"content": []any{},
					"usage":   map[string]any{"input_tokens": 0, "output_tokens": 0},
				},
			},
		})
	}

	choices := asSlice(chunk["choices"])
	if len(choices) == 0 {
		return events
	}
	c0 := asMap(choices[0])
	delta := asMap(c0["delta"])

	if text := asString(delta["content"]); text != "" {
		if !state.ContentBlockOpen || state.CurrentBlockIsTool {
			events = append(events, closeCurrentBlock(state)...)
			events = append(events, openTextBlock(state))
		}
		events = append(events, translate.StreamEvent{
			Type: "content_block_delta",
			Data: map[string]any{
				"type":  "content_block_delta",
				"index": state.ContentBlockIndex,
				"delta": map[string]any{"type": "text_delta", "text": text},
			},
		})
	}

	for _, rawTC := range asSlice(delta["tool_calls"]) {
		tc := asMap(rawTC)
		if tc == nil {
			continue
		}
		oaiIndex := intField(tc, "index")
		fn := asMap(tc["function"])

		blockIndex, seen := state.ToolCallIndex[oaiIndex]
		if !seen {
			events = append(events, closeCurrentBlock(state)...)
			state.ContentBlockIndex++
			blockIndex = state.ContentBlockIndex
			state.ContentBlockOpen = true
			state.CurrentBlockIsTool = true
			state.ToolCallIndex[oaiIndex] = blockIndex
			events = append(events, translate.StreamEvent{
				Type: "content_block_start",
				Data: map[string]any{
					"type":  "content_block_start",
					"index": blockIndex,
					"content_block": map[string]any{
						"type":  "tool_use",
						"id":    asString(tc["id"]),
						"name":  asString(fn["name"]),
						"input": map[string]any{},
					},
				},
			})
		}

		if args := asString(fn["arguments"]); args != "" {
			events = append(events, translate.StreamEvent{
				Type: "content_block_delta",
				Data: map[string]any{
					"type":  "content_block_delta",
					"index": blockIndex,
					"delta": map[string]any{"type": "input_json_delta", "partial_json": args},
				},
			})
		}
	}

	if fr := asString(c0["finish_reason"]); fr != "" {
		events = append(events, closeCurrentBlock(state)...)
		events = append(events, translate.StreamEvent{
			Type: "message_delta",
			Data: map[string]any{
				"type":  "message_delta",
				"delta": map[string]any{"stop_reason": mapOpenAIFinishReason(fr)},
				"usage": map[string]any{"output_tokens": state.OutputTokens},
			},
		})
	}

	return events
}

func openTextBlock(state *translate.StreamState) translate.StreamEvent {
	state.ContentBlockIndex++
	state.ContentBlockOpen = true
	state.CurrentBlockIsTool = false
	return translate.StreamEvent{
		Type: "content_block_start",
		Data: map[string]any{
			"type":          "content_block_start",
			"index":         state.ContentBlockIndex,
			"content_block": map[string]any{"type": "text", "text": ""},
		},
	}
}

func closeCurrentBlock(state *translate.StreamState) []translate.StreamEvent {
	if !state.ContentBlockOpen {
		return nil
	}
	state.ContentBlockOpen = false
	return []translate.StreamEvent{{
		Type: "content_block_stop",
		Data: map[string]any{"type": "content_block_stop", "index": state.ContentBlockIndex},
	}}
}

// ClaudeEventToOpenAIChunks implements the claude-upstream ->
// openai-client direction of spec §4.8.
func (Translator) ClaudeEventToOpenAIChunks(eventType string, payload translate.Body, state *translate.StreamState) []any {
	if state.ClaudeBlockKind == nil {
		state.ClaudeBlockKind = map[int]string{}
		state.ClaudeBlockTool = map[int]claudeToolAccumulator{}
	}

	switch eventType {
	case "message_start":
		message := asMap(payload["message"])
		return []any{map[string]any{
			"id":      asString(message["id"]),
			"object":  "chat.completion.chunk",
			"model":   asString(message["model"]),
			"choices": []any{map[string]any{"index": 0, "delta": map[string]any{"role": "assistant"}, "finish_reason": nil}},
		}}

	case "content_block_start":
		index := intField(payload, "index")
		block := asMap(payload["content_block"])
		if asString(block["type"]) == "tool_use" {
			state.ClaudeBlockKind[index] = "tool_use"
			acc := claudeToolAccumulator{ID: asString(block["id"]), Name: asString(block["name"]), Index: state.ToolCallOrdinal}
			state.ClaudeBlockTool[index] = acc
			state.ToolCallOrdinal++
			return []any{map[string]any{
				"object": "chat.completion.chunk",
				"choices": []any{map[string]any{
					"index": 0,
					"delta": map[string]any{
						"tool_calls": []any{map[string]any{
							"index": acc.Index,
							"id":    acc.ID,
							"type":  "function",
							"function": map[string]any{
								"name":      acc.Name,
								"arguments": "",
							},
						}},
					},
					"finish_reason": nil,
				}},
			}}
		}
		state.ClaudeBlockKind[index] = "text"
		return nil

	case "content_block_delta":
		index := intField(payload, "index")
		delta := asMap(payload["delta"])
		switch delta["type"] {
		case "text_delta":
			return []any{map[string]any{
				"object":  "chat.completion.chunk",
				"choices": []any{map[string]any{"index": 0, "delta": map[string]any{"content": asString(delta["text"])}, "finish_reason": nil}},
			}}
		case "input_json_delta":
			acc := state.ClaudeBlockTool[index]
			return []any{map[string]any{
				"object": "chat.completion.chunk",
				"choices": []any{map[string]any{
					"index": 0,
					"delta": map[string]any{
						"tool_calls": []any{map[string]any{
							"index":    acc.Index,
							"function": map[string]any{"arguments": asString(delta["partial_json"])},
						}},
					},
					"finish_reason": nil,
				}},
			}}
		}
		return nil

	case "content_block_stop":
		return nil

	case "message_delta":
		delta := asMap(payload["delta"])
		stopReason := asString(delta["stop_reason"])
		if stopReason == "" {
			return nil
		}
		return []any{map[string]any{
			"object":  "chat.completion.chunk",
			"choices": []any{map[string]any{"index": 0, "delta": map[string]any{}, "finish_reason": mapClaudeStopReason(stopReason)}},
		}}

	case "message_stop":
		state.SawMessageStop = true
		return []any{DoneSentinel}

	default:
		return nil
	}
}
