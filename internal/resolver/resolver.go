// Package resolver turns a requested model string into an ordered list
// of dispatch candidates against the loaded configuration (spec §4.3).
// Grounded on the teacher's channel/ability lookup flow (resolve a
// requested model name to a concrete channel+adaptor), generalized from
// a database-backed ability table to the in-memory provider/model graph
// in internal/configmodel.
package resolver

import (
	"strings"

	"github.com/Laisky/errors/v2"

	"github.com/Laisky/llm-router/internal/configmodel"
	"github.com/Laisky/llm-router/internal/dialect"
)

// Candidate is one provider/model/format combination the dispatcher may
// attempt, in the order it should be tried.
type Candidate struct {
	ProviderID   string
	ModelID      string
	Provider     *configmodel.Provider
	Model        configmodel.ModelEntry
	TargetFormat dialect.Dialect
}

// Key returns the candidate's breaker key "providerId/modelId@targetFormat".
func (c Candidate) Key() string {
	return c.ProviderID + "/" + c.ModelID + "@" + string(c.TargetFormat)
}

// Resolved is the outcome of resolving a requested model string.
type Resolved struct {
	Primary      Candidate
	Fallbacks    []Candidate
	ResolvedModel string // "providerId/modelId"
}

// errBadModelShape is returned when the requested model string isn't
// "providerId/modelId".
var errBadModelShape = errors.New("Model must use the 'provider/model' convention.")

// Resolve implements spec §4.3. requestedModel is the normalized model
// string from the request; an empty string or "smart" falls back to
// cfg.DefaultModel when set, else is treated literally as "smart" —
// which has no '/' and so fails with errBadModelShape (it is not
// special-cased further than the default-model substitution).
func Resolve(cfg *configmodel.RuntimeConfig, requestedModel string, source dialect.Dialect) (*Resolved, error) {
	model := requestedModel
	if model == "" || model == "smart" {
		if cfg.DefaultModel != "" {
			model = cfg.DefaultModel
		} else if model == "" {
			model = "smart"
		}
	}

	providerID, modelID, ok := splitModelRef(model)
	if !ok {
		return nil, errBadModelShape
	}

	provider, ok := cfg.FindProvider(providerID)
	if !ok {
		return nil, errors.Errorf("provider/model not found: %s", model)
	}
	entry, ok := provider.FindModel(modelID)
	if !ok {
		return nil, errors.Errorf("provider/model not found: %s", model)
	}

	target, err := chooseTargetFormat(source, provider, entry)
	if err != nil {
		return nil, err
	}

	primary := Candidate{
		ProviderID:   provider.ID,
		ModelID:      entry.ID,
		Provider:     provider,
		Model:        entry,
		TargetFormat: target,
	}

	seen := map[string]bool{primary.ProviderID + "/" + primary.ModelID: true}
	var fallbacks []Candidate
	for _, ref := range entry.FallbackModels {
		fbProviderID, fbModelID, ok := splitModelRef(ref)
		if !ok {
			continue
		}
		if seen[fbProviderID+"/"+fbModelID] {
			continue
		}
		fbProvider, ok := cfg.FindProvider(fbProviderID)
		if !ok {
			continue
		}
		fbEntry, ok := fbProvider.FindModel(fbModelID)
		if !ok {
			continue
		}
		fbTarget, err := chooseTargetFormat(source, fbProvider, fbEntry)
		if err != nil {
			continue
		}
		seen[fbProviderID+"/"+fbModelID] = true
		fallbacks = append(fallbacks, Candidate{
			ProviderID:   fbProvider.ID,
			ModelID:      fbEntry.ID,
			Provider:     fbProvider,
			Model:        fbEntry,
			TargetFormat: fbTarget,
		})
	}

	return &Resolved{
		Primary:       primary,
		Fallbacks:     fallbacks,
		ResolvedModel: primary.ProviderID + "/" + primary.ModelID,
	}, nil
}

// splitModelRef splits "providerId/modelId" on the first '/', requiring
// both halves to be non-empty.
func splitModelRef(ref string) (providerID, modelID string, ok bool) {
	i := strings.IndexByte(ref, '/')
	if i <= 0 || i == len(ref)-1 {
		return "", "", false
	}
	return ref[:i], ref[i+1:], true
}

// chooseTargetFormat intersects the model's declared formats (if any)
// with the provider's, then applies spec §4.3's targetFormat rule:
// source if supported by the intersection, else the sole supported
// dialect, else the provider's preferred format, else openai.
func chooseTargetFormat(source dialect.Dialect, p *configmodel.Provider, m configmodel.ModelEntry) (dialect.Dialect, error) {
	supported := intersectFormats(p, m)
	if len(supported) == 0 {
		return "", errors.Errorf("model %s/%s declares no format supported by its provider", p.ID, m.ID)
	}

	if containsFormat(supported, source) {
		return source, nil
	}
	if len(supported) == 1 {
		return supported[0], nil
	}
	if p.Format != "" && containsFormat(supported, p.Format) {
		return p.Format, nil
	}
	if containsFormat(supported, dialect.OpenAI) {
		return dialect.OpenAI, nil
	}
	return supported[0], nil
}

func intersectFormats(p *configmodel.Provider, m configmodel.ModelEntry) []dialect.Dialect {
	if len(m.Formats) == 0 {
		return p.Formats
	}
	var out []dialect.Dialect
	for _, f := range p.Formats {
		if containsFormat(m.Formats, f) {
			out = append(out, f)
		}
	}
	return out
}

func containsFormat(list []dialect.Dialect, f dialect.Dialect) bool {
	for _, d := range list {
		if d == f {
			return true
		}
	}
	return false
}
