package configmodel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/llm-router/internal/dialect"
)

func validConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Version:   CurrentVersion,
		MasterKey: "secret",
		Providers: []Provider{
			{
				ID:      "or",
				BaseURL: "https://api.example.com",
				Formats: []dialect.Dialect{dialect.OpenAI},
				Models: []ModelEntry{
					{ID: "gpt-x"},
				},
			},
		},
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidateRejectsBadSlug(t *testing.T) {
	cfg := validConfig()
	cfg.Providers[0].ID = "1-invalid"
	require.Error(t, Validate(cfg))
}

func TestValidateRejectsDuplicateProviderIDs(t *testing.T) {
	cfg := validConfig()
	cfg.Providers = append(cfg.Providers, cfg.Providers[0])
	require.Error(t, Validate(cfg))
}

func TestValidateRejectsUnresolvedDefaultModel(t *testing.T) {
	cfg := validConfig()
	cfg.DefaultModel = "or/missing"
	require.Error(t, Validate(cfg))
}

func TestValidateRejectsUnresolvedFallback(t *testing.T) {
	cfg := validConfig()
	cfg.Providers[0].Models[0].FallbackModels = []string{"or/missing"}
	require.Error(t, Validate(cfg))
}

func TestValidateRejectsNonHTTPScheme(t *testing.T) {
	cfg := validConfig()
	cfg.Providers[0].BaseURL = "ftp://example.com"
	require.Error(t, Validate(cfg))
}

func TestValidateRequiresMasterKeyUnlessIgnoreAuth(t *testing.T) {
	cfg := validConfig()
	cfg.MasterKey = ""
	require.Error(t, Validate(cfg))

	cfg.IgnoreAuth = true
	require.NoError(t, Validate(cfg))
}
