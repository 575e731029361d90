package openaiclaude

import "github.com/Laisky/llm-router/internal/translate"

// Translator implements translate.Translator for the openai<->claude
// pair. It holds no state of its own — all per-request state lives in
// the translate.StreamState the caller threads through streaming calls.
type Translator struct{}

var _ translate.Translator = Translator{}

// New returns a ready-to-use openai<->claude translator.
func New() Translator {
	return Translator{}
}
