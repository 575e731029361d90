package configmodel

import (
	"net/url"
	"regexp"
	"sync"

	"github.com/Laisky/errors/v2"
	"github.com/go-playground/validator/v10"

	"github.com/Laisky/llm-router/common"
)

var slugPattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9-]*$`)

var (
	validateOnce sync.Once
	validatorSingleton *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
		validatorSingleton = v
	})
	return validatorSingleton
}

// Validate enforces spec §3's RuntimeConfig invariants: struct-tag rules
// via go-playground/validator, plus the cross-field rules validator
// can't express (unique provider ids, resolvable model references,
// scheme-checked URLs, non-empty master key).
func Validate(cfg *RuntimeConfig) error {
	if err := getValidator().Struct(cfg); err != nil {
		return errors.Wrap(err, "validate runtime config")
	}

	seenProviders := make(map[string]bool, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if seenProviders[p.ID] {
			return errors.Errorf("duplicate provider id %q", p.ID)
		}
		seenProviders[p.ID] = true

		if err := validateBaseURL(p.BaseURL); err != nil {
			return errors.Wrapf(err, "provider %q baseUrl", p.ID)
		}
		if common.IsMaskedSecret(p.APIKey) {
			return errors.Errorf("provider %q apiKey is a masked placeholder, not a real credential", p.ID)
		}
		for f, u := range p.BaseURLByFormat {
			if err := validateBaseURL(u); err != nil {
				return errors.Wrapf(err, "provider %q baseUrlByFormat[%s]", p.ID, f)
			}
		}
	}

	if cfg.DefaultModel != "" {
		if _, _, ok := lookupReference(cfg, cfg.DefaultModel); !ok {
			return errors.Errorf("defaultModel %q does not resolve to an enabled provider+model", cfg.DefaultModel)
		}
	}

	for _, p := range cfg.Providers {
		for _, m := range p.Models {
			for _, ref := range m.FallbackModels {
				if _, _, ok := lookupReference(cfg, ref); !ok {
					return errors.Errorf("provider %q model %q fallbackModels references unresolved %q", p.ID, m.ID, ref)
				}
			}
		}
	}

	for aliasID, alias := range cfg.ModelAliases {
		for _, ref := range alias.Targets {
			if _, _, ok := lookupReference(cfg, ref); !ok {
				return errors.Errorf("modelAlias %q targets unresolved %q", aliasID, ref)
			}
		}
		for _, ref := range alias.FallbackTargets {
			if _, _, ok := lookupReference(cfg, ref); !ok {
				return errors.Errorf("modelAlias %q fallbackTargets unresolved %q", aliasID, ref)
			}
		}
	}

	if cfg.MasterKey == "" && !cfg.IgnoreAuth {
		// masterKey is optional only when ignoreAuth is true; without it
		// the front gate would reject every request with 401, so the
		// config is refused at load time instead.
		return errors.Errorf("masterKey must be set unless ignoreAuth is true")
	}

	return nil
}

// validateBaseURL enforces the http(s)-only, userinfo/fragment-stripped
// invariant from spec §3 (stripping itself happens in normalize.go; this
// only rejects schemes other than http/https).
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrap(err, "parse url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.Errorf("url has no host")
	}
	return nil
}

// lookupReference resolves a "providerId/modelId" string against cfg,
// honoring model aliases, without applying formats intersection checks
// (those happen in internal/resolver at request time).
func lookupReference(cfg *RuntimeConfig, ref string) (*Provider, ModelEntry, bool) {
	providerID, modelID, ok := splitReference(ref)
	if !ok {
		return nil, ModelEntry{}, false
	}
	p, ok := cfg.FindProvider(providerID)
	if !ok {
		return nil, ModelEntry{}, false
	}
	m, ok := p.FindModel(modelID)
	if !ok {
		return nil, ModelEntry{}, false
	}
	return p, m, true
}

// splitReference splits "providerId/modelId" on the first '/'.
func splitReference(ref string) (providerID, modelID string, ok bool) {
	for i := 0; i < len(ref); i++ {
		if ref[i] == '/' {
			return ref[:i], ref[i+1:], i > 0 && i < len(ref)-1
		}
	}
	return "", "", false
}
