package gateway

import (
	"github.com/Laisky/llm-router/internal/configmodel"
	"github.com/Laisky/llm-router/internal/dialect"
)

// modelEntry is one row of a /v1/models-style listing.
type modelEntry struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	OwnedBy string   `json:"owned_by"`
	Formats []string `json:"formats"`
}

// listModels enumerates every enabled model of every enabled provider,
// optionally filtered to models whose supported formats include filter
// (empty filter means unfiltered, per spec §4.1's
// `/v1/models` vs `/openai/v1/models` vs `/anthropic/v1/models`
// distinction). Results are memoized per config snapshot identity via
// internal/configmodel's model-list cache.
func listModels(cfg *configmodel.RuntimeConfig, filter dialect.Dialect) []modelEntry {
	cacheKey := configmodel.ModelListCacheKey(cfg, string(filter))
	if cached, ok := configmodel.GetCachedModelList(cacheKey); ok {
		if entries, ok := cached.([]modelEntry); ok {
			return entries
		}
	}

	var out []modelEntry
	for _, provider := range cfg.Providers {
		if !provider.IsEnabled() {
			continue
		}
		for _, model := range provider.Models {
			if !model.IsEnabled() {
				continue
			}
			formats := effectiveFormats(provider, model)
			if filter != "" && !containsDialect(formats, filter) {
				continue
			}
			out = append(out, modelEntry{
				ID:      provider.ID + "/" + model.ID,
				Object:  "model",
				OwnedBy: provider.ID,
				Formats: formatStrings(formats),
			})
		}
	}
	if out == nil {
		out = []modelEntry{}
	}

	configmodel.SetCachedModelList(cacheKey, out)
	return out
}

func effectiveFormats(provider configmodel.Provider, model configmodel.ModelEntry) []dialect.Dialect {
	if len(model.Formats) > 0 {
		return model.Formats
	}
	return provider.Formats
}

func containsDialect(formats []dialect.Dialect, target dialect.Dialect) bool {
	for _, f := range formats {
		if f == target {
			return true
		}
	}
	return false
}

func formatStrings(formats []dialect.Dialect) []string {
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = string(f)
	}
	return out
}
