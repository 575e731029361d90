package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/llm-router/internal/configmodel"
	"github.com/Laisky/llm-router/internal/dialect"
)

func baseConfig() *configmodel.RuntimeConfig {
	return &configmodel.RuntimeConfig{
		Version: 2,
		Providers: []configmodel.Provider{
			{
				ID:      "openrouter",
				BaseURL: "https://openrouter.ai",
				Formats: []dialect.Dialect{dialect.OpenAI},
				Format:  dialect.OpenAI,
				Models: []configmodel.ModelEntry{
					{ID: "gpt-4o", Aliases: []string{"gpt4"}, FallbackModels: []string{"anthropic/claude-3"}},
				},
			},
			{
				ID:      "anthropic",
				BaseURL: "https://api.anthropic.com",
				Formats: []dialect.Dialect{dialect.Claude},
				Format:  dialect.Claude,
				Models: []configmodel.ModelEntry{
					{ID: "claude-3"},
				},
			},
			{
				ID:      "both",
				BaseURL: "https://both.example.com",
				Formats: []dialect.Dialect{dialect.OpenAI, dialect.Claude},
				Models: []configmodel.ModelEntry{
					{ID: "dual"},
				},
			},
		},
	}
}

func TestResolveRejectsBadShape(t *testing.T) {
	_, err := Resolve(baseConfig(), "gpt-4o", dialect.OpenAI)
	require.Error(t, err)
}

func TestResolveMissingProvider(t *testing.T) {
	_, err := Resolve(baseConfig(), "nope/gpt-4o", dialect.OpenAI)
	require.Error(t, err)
}

func TestResolveByAlias(t *testing.T) {
	res, err := Resolve(baseConfig(), "openrouter/gpt4", dialect.OpenAI)
	require.NoError(t, err)
	require.Equal(t, "openrouter/gpt-4o", res.ResolvedModel)
}

func TestResolveBuildsFallbackChain(t *testing.T) {
	res, err := Resolve(baseConfig(), "openrouter/gpt-4o", dialect.OpenAI)
	require.NoError(t, err)
	require.Len(t, res.Fallbacks, 1)
	require.Equal(t, "anthropic/claude-3", res.Fallbacks[0].ProviderID+"/"+res.Fallbacks[0].ModelID)
}

func TestResolveTargetFormatPrefersSourceWhenSupported(t *testing.T) {
	res, err := Resolve(baseConfig(), "both/dual", dialect.Claude)
	require.NoError(t, err)
	require.Equal(t, dialect.Claude, res.Primary.TargetFormat)
}

func TestResolveTargetFormatFallsBackToSoleSupported(t *testing.T) {
	res, err := Resolve(baseConfig(), "anthropic/claude-3", dialect.OpenAI)
	require.NoError(t, err)
	require.Equal(t, dialect.Claude, res.Primary.TargetFormat)
}

func TestResolveDefaultModelUsedWhenRequestEmpty(t *testing.T) {
	cfg := baseConfig()
	cfg.DefaultModel = "openrouter/gpt-4o"
	res, err := Resolve(cfg, "", dialect.OpenAI)
	require.NoError(t, err)
	require.Equal(t, "openrouter/gpt-4o", res.ResolvedModel)
}

func TestResolveSkipsUnresolvedFallbackSilently(t *testing.T) {
	cfg := baseConfig()
	cfg.Providers[0].Models[0].FallbackModels = []string{"missing/model", "anthropic/claude-3"}
	res, err := Resolve(cfg, "openrouter/gpt-4o", dialect.OpenAI)
	require.NoError(t, err)
	require.Len(t, res.Fallbacks, 1)
}

func TestResolveDedupsFallbacksAgainstPrimary(t *testing.T) {
	cfg := baseConfig()
	cfg.Providers[0].Models[0].FallbackModels = []string{"openrouter/gpt-4o", "anthropic/claude-3"}
	res, err := Resolve(cfg, "openrouter/gpt-4o", dialect.OpenAI)
	require.NoError(t, err)
	require.Len(t, res.Fallbacks, 1)
	require.Equal(t, "anthropic", res.Fallbacks[0].ProviderID)
}
