// Package configmodel holds the runtime configuration schema (spec §3),
// its validation and normalization, env/file loading with migration, and
// the process-wide cache of derived model lists. Grounded on the
// teacher's config-handling conventions (struct-tag validation via
// go-playground/validator, snapshot cloning via jinzhu/copier) even
// though the teacher itself persists config in a database rather than a
// JSON document; this gateway's config is document-shaped per spec §6.
package configmodel

import "github.com/Laisky/llm-router/internal/dialect"

// AuthKind is the tagged variant for how a request authenticates to a
// provider (spec §9 "Polymorphism").
type AuthKind string

const (
	AuthBearer AuthKind = "bearer"
	AuthXAPIKey AuthKind = "x-api-key"
	AuthHeader AuthKind = "header"
	AuthNone   AuthKind = "none"
)

// Auth describes one provider's (or per-dialect override's) auth scheme.
type Auth struct {
	Kind   AuthKind `json:"kind" validate:"required,oneof=bearer x-api-key header none"`
	Name   string   `json:"name,omitempty"`   // header name, when Kind == AuthHeader
	Prefix string   `json:"prefix,omitempty"` // e.g. "Bearer " for AuthBearer, defaulted if empty
}

// ModelAliasStrategy selects how an alias picks one target per request.
type ModelAliasStrategy string

const (
	StrategyAuto                 ModelAliasStrategy = "auto"
	StrategyOrdered               ModelAliasStrategy = "ordered"
	StrategyRoundRobin            ModelAliasStrategy = "round-robin"
	StrategyWeightedRoundRobin    ModelAliasStrategy = "weighted-rr"
	StrategyQuotaAwareWeightedRR  ModelAliasStrategy = "quota-aware-weighted-rr"
)

// ModelAlias is a user-facing virtual model mapped onto one or more
// qualified "providerId/modelId" targets (spec §3).
type ModelAlias struct {
	Strategy        ModelAliasStrategy `json:"strategy" validate:"omitempty,oneof=auto ordered round-robin weighted-rr quota-aware-weighted-rr"`
	Targets         []string           `json:"targets" validate:"required,min=1,dive,required"`
	FallbackTargets []string           `json:"fallbackTargets,omitempty"`
	Metadata        map[string]any     `json:"metadata,omitempty"`
}

// RateLimitWindow is the size unit for a RateLimitBucket.
type RateLimitWindow struct {
	Unit string `json:"unit" validate:"required,oneof=second minute hour day"`
	Size int    `json:"size" validate:"required,min=1"`
}

// RateLimitBucket is declared per provider for observability only; the
// dispatcher never enforces it (spec §3).
type RateLimitBucket struct {
	Models   []string        `json:"models,omitempty"`
	Requests int             `json:"requests" validate:"required,min=1"`
	Window   RateLimitWindow `json:"window" validate:"required"`
}

// ModelEntry lives under a Provider (spec §3).
type ModelEntry struct {
	ID              string             `json:"id" validate:"required"`
	Enabled         *bool              `json:"enabled,omitempty"`
	Aliases         []string           `json:"aliases,omitempty"`
	Formats         []dialect.Dialect  `json:"formats,omitempty" validate:"omitempty,dive,oneof=openai claude"`
	FallbackModels  []string           `json:"fallbackModels,omitempty"`
}

// IsEnabled defaults a nil Enabled pointer to true.
func (m ModelEntry) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// SupportsFormat reports whether the model's declared formats (if any)
// include f. A model with no declared formats inherits the provider's.
func (m ModelEntry) SupportsFormat(f dialect.Dialect) bool {
	if len(m.Formats) == 0 {
		return true
	}
	for _, d := range m.Formats {
		if d == f {
			return true
		}
	}
	return false
}

// Provider is a named upstream endpoint (spec §3).
type Provider struct {
	ID      string `json:"id" validate:"required,slug"`
	Name    string `json:"name,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`

	BaseURL         string                      `json:"baseUrl" validate:"required,url"`
	BaseURLByFormat map[dialect.Dialect]string  `json:"baseUrlByFormat,omitempty"`

	APIKey    string `json:"apiKey,omitempty"`
	APIKeyEnv string `json:"apiKeyEnv,omitempty"`

	Auth         *Auth                  `json:"auth,omitempty"`
	AuthByFormat map[dialect.Dialect]Auth `json:"authByFormat,omitempty"`

	Formats []dialect.Dialect `json:"formats" validate:"required,min=1,dive,oneof=openai claude"`
	Format  dialect.Dialect   `json:"format,omitempty" validate:"omitempty,oneof=openai claude"`

	Headers map[string]string `json:"headers,omitempty"`

	AnthropicVersion string `json:"anthropicVersion,omitempty"`
	AnthropicBeta    string `json:"anthropicBeta,omitempty"`

	Models      []ModelEntry      `json:"models" validate:"dive"`
	RateLimits  []RateLimitBucket `json:"rateLimits,omitempty"`
}

// IsEnabled defaults a nil Enabled pointer to true.
func (p Provider) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// SupportsFormat reports whether f is among the provider's declared
// formats.
func (p Provider) SupportsFormat(f dialect.Dialect) bool {
	for _, d := range p.Formats {
		if d == f {
			return true
		}
	}
	return false
}

// FindModel looks up a model by id or alias among enabled models.
func (p Provider) FindModel(modelID string) (ModelEntry, bool) {
	for _, m := range p.Models {
		if !m.IsEnabled() {
			continue
		}
		if m.ID == modelID {
			return m, true
		}
		for _, alias := range m.Aliases {
			if alias == modelID {
				return m, true
			}
		}
	}
	return ModelEntry{}, false
}

// ResolvedAuth returns the auth scheme for f, preferring a per-format
// override, then the provider default, then OpenAI→bearer / claude→x-api-key.
func (p Provider) ResolvedAuth(f dialect.Dialect) Auth {
	if a, ok := p.AuthByFormat[f]; ok {
		return a
	}
	if p.Auth != nil {
		return *p.Auth
	}
	if f == dialect.Claude {
		return Auth{Kind: AuthXAPIKey}
	}
	return Auth{Kind: AuthBearer}
}

// ResolvedBaseURL returns the base URL to use for f, preferring a
// per-format override over the provider default.
func (p Provider) ResolvedBaseURL(f dialect.Dialect) string {
	if u, ok := p.BaseURLByFormat[f]; ok && u != "" {
		return u
	}
	return p.BaseURL
}

// RuntimeConfig is the top-level document consumed by the core (spec §3, §6).
type RuntimeConfig struct {
	Version      int                   `json:"version" validate:"required,min=1"`
	MasterKey    string                `json:"masterKey,omitempty"`
	DefaultModel string                `json:"defaultModel,omitempty"`
	Providers    []Provider            `json:"providers" validate:"required,min=1,dive"`
	ModelAliases map[string]ModelAlias `json:"modelAliases,omitempty" validate:"dive"`
	Metadata     map[string]any        `json:"metadata,omitempty"`

	// Network policy, consumed by internal/gateway; optional.
	CORSAllowOrigins []string `json:"corsAllowOrigins,omitempty"`
	CORSAllowAll     bool     `json:"corsAllowAll,omitempty"`
	IPAllowlist      []string `json:"ipAllowlist,omitempty"`
	IgnoreAuth       bool     `json:"ignoreAuth,omitempty"`
}

// CurrentVersion is the schema version new/migrated configs are written as.
const CurrentVersion = 2

// FindProvider looks up an enabled provider by id.
func (c *RuntimeConfig) FindProvider(providerID string) (*Provider, bool) {
	for i := range c.Providers {
		if c.Providers[i].ID == providerID && c.Providers[i].IsEnabled() {
			return &c.Providers[i], true
		}
	}
	return nil, false
}
