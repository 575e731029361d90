package cachehint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/llm-router/internal/dialect"
	"github.com/Laisky/llm-router/internal/translate"
)

func TestApplyClaudeToOpenAISetsPromptCacheKeyFromHeader(t *testing.T) {
	source := translate.Body{"cache_control": map[string]any{"type": "ephemeral", "ttl": "1h"}}
	translated := translate.Body{}

	Apply(dialect.Claude, dialect.OpenAI, source, translated, Headers{PromptCacheKey: "abc"})

	require.Equal(t, "abc", translated["prompt_cache_key"])
	require.Equal(t, "24h", translated["prompt_cache_retention"])
}

func TestApplyClaudeToOpenAIDerivesKeyWhenNoneProvided(t *testing.T) {
	source := translate.Body{
		"model":         "m",
		"cache_control": map[string]any{"type": "ephemeral"},
	}
	translated := translate.Body{}

	Apply(dialect.Claude, dialect.OpenAI, source, translated, Headers{})

	key, ok := translated["prompt_cache_key"].(string)
	require.True(t, ok)
	require.Contains(t, key, "llm-router:")
	require.Equal(t, "in_memory", translated["prompt_cache_retention"])
}

func TestApplyClaudeToOpenAINoOpWithoutMarker(t *testing.T) {
	source := translate.Body{}
	translated := translate.Body{}
	Apply(dialect.Claude, dialect.OpenAI, source, translated, Headers{})
	require.NotContains(t, translated, "prompt_cache_key")
}

func TestApplyOpenAIToClaudeMapsRetention24h(t *testing.T) {
	source := translate.Body{"prompt_cache_retention": "24h"}
	translated := translate.Body{}
	Apply(dialect.OpenAI, dialect.Claude, source, translated, Headers{})
	cc := translated["cache_control"].(map[string]any)
	require.Equal(t, "ephemeral", cc["type"])
	require.Equal(t, "1h", cc["ttl"])
}

func TestApplyOpenAIToClaudeMapsRetentionInMemory(t *testing.T) {
	source := translate.Body{}
	translated := translate.Body{}
	Apply(dialect.OpenAI, dialect.Claude, source, translated, Headers{PromptCacheRetention: "in_memory"})
	cc := translated["cache_control"].(map[string]any)
	require.Equal(t, "ephemeral", cc["type"])
	require.NotContains(t, cc, "ttl")
}

func TestApplyOpenAIToClaudeKeyOnlyFallsBackToBareEphemeral(t *testing.T) {
	source := translate.Body{}
	translated := translate.Body{}
	Apply(dialect.OpenAI, dialect.Claude, source, translated, Headers{PromptCacheKey: "k"})
	cc := translated["cache_control"].(map[string]any)
	require.Equal(t, "ephemeral", cc["type"])
}

func TestDerivedKeyIsDeterministic(t *testing.T) {
	body := translate.Body{"model": "m", "messages": []any{map[string]any{"role": "user", "content": "hi"}}}
	require.Equal(t, DerivedKey(body), DerivedKey(body))
}

func TestDerivedKeyDiffersOnDifferentInput(t *testing.T) {
	a := translate.Body{"model": "m1"}
	b := translate.Body{"model": "m2"}
	require.NotEqual(t, DerivedKey(a), DerivedKey(b))
}
