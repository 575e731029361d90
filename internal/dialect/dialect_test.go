package dialect

import "testing"

func TestDetectAnthropicVersionHeader(t *testing.T) {
	if got := Detect("2023-06-01", map[string]any{}); got != Claude {
		t.Fatalf("got %v, want claude", got)
	}
}

func TestDetectOpenAIMarkers(t *testing.T) {
	cases := []map[string]any{
		{"max_completion_tokens": float64(10)},
		{"response_format": map[string]any{"type": "json_object"}},
		{"n": float64(2)},
	}
	for _, body := range cases {
		if got := Detect("", body); got != OpenAI {
			t.Fatalf("Detect(%v) = %v, want openai", body, got)
		}
	}
}

func TestDetectToolShapes(t *testing.T) {
	claudeTools := map[string]any{
		"tools": []any{map[string]any{"input_schema": map[string]any{}}},
	}
	if got := Detect("", claudeTools); got != Claude {
		t.Fatalf("got %v, want claude", got)
	}

	openaiTools := map[string]any{
		"tools": []any{map[string]any{"type": "function", "function": map[string]any{}}},
	}
	if got := Detect("", openaiTools); got != OpenAI {
		t.Fatalf("got %v, want openai", got)
	}
}

func TestDetectToolChoice(t *testing.T) {
	if got := Detect("", map[string]any{"tool_choice": "required"}); got != OpenAI {
		t.Fatalf("got %v, want openai", got)
	}
	if got := Detect("", map[string]any{"tool_choice": map[string]any{"type": "any"}}); got != Claude {
		t.Fatalf("got %v, want claude", got)
	}
}

func TestDetectMessageShapes(t *testing.T) {
	openaiMsg := map[string]any{
		"messages": []any{map[string]any{"role": "tool", "tool_call_id": "abc"}},
	}
	if got := Detect("", openaiMsg); got != OpenAI {
		t.Fatalf("got %v, want openai", got)
	}

	claudeBlockMsg := map[string]any{
		"messages": []any{map[string]any{
			"role":    "assistant",
			"content": []any{map[string]any{"type": "tool_use"}},
		}},
	}
	if got := Detect("", claudeBlockMsg); got != Claude {
		t.Fatalf("got %v, want claude", got)
	}
}

func TestDetectSystemField(t *testing.T) {
	if got := Detect("", map[string]any{"system": "be nice"}); got != Claude {
		t.Fatalf("got %v, want claude", got)
	}
}

func TestDetectFallback(t *testing.T) {
	if got := Detect("", map[string]any{}); got != Claude {
		t.Fatalf("got %v, want claude fallback", got)
	}
}

func TestStreamRequested(t *testing.T) {
	if StreamRequested(OpenAI, map[string]any{"stream": true}) != true {
		t.Fatal("expected stream true")
	}
	if StreamRequested(OpenAI, map[string]any{"stream": "true"}) != false {
		t.Fatal("expected non-bool stream value to be false")
	}
	if StreamRequested(OpenAI, map[string]any{}) != false {
		t.Fatal("expected absent stream to be false")
	}
}

func TestParse(t *testing.T) {
	if d, err := Parse("OpenAI"); err != nil || d != OpenAI {
		t.Fatalf("Parse(OpenAI) = %v, %v", d, err)
	}
	if _, err := Parse("bogus"); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}
