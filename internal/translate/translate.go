// Package translate defines the contract the core dispatcher (spec
// §4.5, §4.8, §4.9) uses to convert request/response bodies between
// the openai and claude wire dialects, without the core ever having to
// know a wire field name itself. The concrete mapping rules live in
// internal/translate/openaiclaude; this package only holds the shared
// interface and streaming-state shape, grounded on the teacher's
// adaptor-interface pattern (one opaque capability interface per
// concern, implemented per backend) generalized from "one adaptor per
// provider" to "one translator per dialect pair".
package translate

import "github.com/Laisky/llm-router/internal/dialect"

// Body is a decoded JSON request or response body. The translator
// operates on generic JSON rather than typed wire structs so it never
// has to chase either dialect's full schema — only the fields spec
// §4.9 and its request-side analogue actually name.
type Body = map[string]any

// StreamState carries the in-progress translation state for one
// streaming response across successive chunks; its zero value is
// ready to use. It is created once per request, at the point the
// candidate's target format is known to differ from the source.
type StreamState struct {
	// ResponseModel is echoed into translated events; set once from
	// the resolved candidate's requested model id.
	ResponseModel string

	// openai -> claude state
	MessageStarted     bool
	ContentBlockOpen    bool
	ContentBlockIndex   int
	CurrentBlockIsTool  bool
	ToolCallIndex       map[int]int // openai tool_calls[].index -> claude content block index
	AccumulatedToolArgs map[int]string
	InputTokens         int
	OutputTokens        int

	// claude -> openai state
	SawMessageStop bool
	ToolCallOrdinal int // next openai tool_calls[] position to assign
	ClaudeBlockKind map[int]string // claude content block index -> "text"|"tool_use"
	ClaudeBlockTool map[int]claudeToolAccumulator
}

type claudeToolAccumulator struct {
	ID    string
	Name  string
	Index int
}

// Translator is the capability set the dispatcher (internal/dispatch)
// and provider adaptor (internal/provideradaptor) consume. A single
// instance translates in both directions, selected by source/target
// dialect.
type Translator interface {
	// TranslateRequest converts body from source to target dialect,
	// without setting body.model (the caller sets it to the candidate's
	// backend model id separately, per spec §4.5 step 2).
	TranslateRequest(source, target dialect.Dialect, backendModelID string, body Body, stream bool) (Body, error)

	// TranslateResponse converts a single decoded non-stream response
	// body from source to target dialect (spec §4.9).
	TranslateResponse(source, target dialect.Dialect, body Body) (Body, error)

	// TranslateStreamChunk converts one decoded openai SSE data chunk
	// into zero or more claude SSE events (spec §4.8, openai upstream
	// -> claude client direction). Each returned event carries its
	// `event:` type name alongside the JSON payload to write as `data:`.
	TranslateStreamChunk(chunk Body, state *StreamState) []StreamEvent

	// ClaudeEventToOpenAIChunks converts one claude SSE frame
	// (event type + decoded payload) into zero or more openai SSE data
	// chunks, each either a Body or the sentinel string "[DONE]" (spec
	// §4.8, claude upstream -> openai client direction).
	ClaudeEventToOpenAIChunks(eventType string, payload Body, state *StreamState) []any
}

// StreamEvent is one claude-dialect SSE frame: `event: Type\ndata:
// <json of Data>\n\n`.
type StreamEvent struct {
	Type string
	Data Body
}
