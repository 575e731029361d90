package openaiclaude

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/llm-router/internal/dialect"
	"github.com/Laisky/llm-router/internal/translate"
)

func TestTranslateRequestSameDialectIsNoOp(t *testing.T) {
	tr := New()
	body := translate.Body{"model": "x", "messages": []any{}}
	out, err := tr.TranslateRequest(dialect.OpenAI, dialect.OpenAI, "backend", body, false)
	require.NoError(t, err)
	require.Equal(t, body, out)
}

func TestTranslateRequestOpenAIToClaude(t *testing.T) {
	tr := New()
	body := translate.Body{
		"model": "gpt-x",
		"messages": []any{
			map[string]any{"role": "system", "content": "be terse"},
			map[string]any{"role": "user", "content": "hi"},
		},
		"max_tokens": float64(100),
	}
	out, err := tr.TranslateRequest(dialect.OpenAI, dialect.Claude, "backend", body, false)
	require.NoError(t, err)
	require.Equal(t, "be terse", out["system"])
	require.Equal(t, float64(100), out["max_tokens"])

	msgs := out["messages"].([]any)
	require.Len(t, msgs, 1)
	m0 := msgs[0].(map[string]any)
	require.Equal(t, "user", m0["role"])
}

func TestTranslateRequestClaudeToOpenAI(t *testing.T) {
	tr := New()
	body := translate.Body{
		"model":      "claude-3",
		"system":     "be terse",
		"max_tokens": float64(1),
		"messages": []any{
			map[string]any{"role": "user", "content": "hi"},
		},
	}
	out, err := tr.TranslateRequest(dialect.Claude, dialect.OpenAI, "backend", body, false)
	require.NoError(t, err)

	msgs := out["messages"].([]any)
	require.Len(t, msgs, 2)
	require.Equal(t, "system", msgs[0].(map[string]any)["role"])
	require.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestTranslateRequestRoundTripPreservesRolesAndText(t *testing.T) {
	tr := New()
	original := translate.Body{
		"model": "gpt-x",
		"messages": []any{
			map[string]any{"role": "user", "content": "hello there"},
		},
		"stream": false,
	}

	toClaude, err := tr.TranslateRequest(dialect.OpenAI, dialect.Claude, "backend", original, false)
	require.NoError(t, err)
	back, err := tr.TranslateRequest(dialect.Claude, dialect.OpenAI, "backend", toClaude, false)
	require.NoError(t, err)

	origMsgs := original["messages"].([]any)
	backMsgs := back["messages"].([]any)
	require.Len(t, backMsgs, len(origMsgs))
	require.Equal(t, "user", backMsgs[0].(map[string]any)["role"])
	require.Equal(t, "hello there", backMsgs[0].(map[string]any)["content"])
}

func TestTranslateResponseOpenAIToClaude(t *testing.T) {
	tr := New()
	body := translate.Body{
		"choices": []any{
			map[string]any{
				"message":       map[string]any{"content": "ok", "tool_calls": nil},
				"finish_reason": "stop",
			},
		},
	}
	out, err := tr.TranslateResponse(dialect.OpenAI, dialect.Claude, body)
	require.NoError(t, err)
	require.Equal(t, "message", out["type"])
	require.Equal(t, "assistant", out["role"])
	require.Equal(t, "end_turn", out["stop_reason"])
	content := out["content"].([]any)
	require.Equal(t, "ok", content[0].(map[string]any)["text"])
}

func TestTranslateResponseToolCallsMapToToolUse(t *testing.T) {
	tr := New()
	body := translate.Body{
		"choices": []any{
			map[string]any{
				"message": map[string]any{
					"tool_calls": []any{
						map[string]any{"id": "call_1", "function": map[string]any{"name": "get_weather", "arguments": `{"city":"nyc"}`}},
					},
				},
				"finish_reason": "tool_calls",
			},
		},
	}
	out, err := tr.TranslateResponse(dialect.OpenAI, dialect.Claude, body)
	require.NoError(t, err)
	require.Equal(t, "tool_use", out["stop_reason"])
	content := out["content"].([]any)
	block := content[0].(map[string]any)
	require.Equal(t, "tool_use", block["type"])
	require.Equal(t, "get_weather", block["name"])
}

func TestTranslateResponseUsageMapping(t *testing.T) {
	tr := New()
	body := translate.Body{
		"choices": []any{map[string]any{"message": map[string]any{"content": "x"}, "finish_reason": "stop"}},
		"usage":   map[string]any{"prompt_tokens": float64(5), "completion_tokens": float64(7)},
	}
	out, err := tr.TranslateResponse(dialect.OpenAI, dialect.Claude, body)
	require.NoError(t, err)
	usage := out["usage"].(map[string]any)
	require.Equal(t, 5, usage["input_tokens"])
	require.Equal(t, 7, usage["output_tokens"])
}

func TestStreamTextChunkProducesMessageStartAndBlock(t *testing.T) {
	tr := New()
	state := &translate.StreamState{ResponseModel: "gpt-x"}

	chunk := translate.Body{
		"id":      "chatcmpl-1",
		"choices": []any{map[string]any{"delta": map[string]any{"content": "hi"}}},
	}
	events := tr.TranslateStreamChunk(chunk, state)

	var types []string
	for _, e := range events {
		types = append(types, e.Type)
	}
	require.Equal(t, []string{"message_start", "content_block_start", "content_block_delta"}, types)
}

func TestStreamFinishReasonClosesBlockAndEmitsMessageDelta(t *testing.T) {
	tr := New()
	state := &translate.StreamState{ResponseModel: "gpt-x"}
	tr.TranslateStreamChunk(translate.Body{"choices": []any{map[string]any{"delta": map[string]any{"content": "hi"}}}}, state)
	events := tr.TranslateStreamChunk(translate.Body{"choices": []any{map[string]any{"delta": map[string]any{}, "finish_reason": "stop"}}}, state)

	var types []string
	for _, e := range events {
		types = append(types, e.Type)
	}
	require.Equal(t, []string{"content_block_stop", "message_delta"}, types)
}

func TestClaudeEventToOpenAIChunksMessageStop(t *testing.T) {
	tr := New()
	state := &translate.StreamState{}
	out := tr.ClaudeEventToOpenAIChunks("message_stop", translate.Body{}, state)
	require.Equal(t, []any{DoneSentinel}, out)
	require.True(t, state.SawMessageStop)
}

func TestClaudeEventToOpenAIChunksToolUse(t *testing.T) {
	tr := New()
	state := &translate.StreamState{}
	start := tr.ClaudeEventToOpenAIChunks("content_block_start", translate.Body{
		"index":         float64(0),
		"content_block": map[string]any{"type": "tool_use", "id": "t1", "name": "get_weather"},
	}, state)
	require.Len(t, start, 1)

	delta := tr.ClaudeEventToOpenAIChunks("content_block_delta", translate.Body{
		"index": float64(0),
		"delta": map[string]any{"type": "input_json_delta", "partial_json": `{"city":`},
	}, state)
	require.Len(t, delta, 1)
}
