package configmodel

import (
	"net/url"

	"github.com/jinzhu/copier"
)

// Normalize returns a deep clone of cfg (via jinzhu/copier, matching the
// teacher's clone-before-mutate convention for config snapshots) with
// URLs stripped of user-info/fragment, per-provider Format defaulted,
// and Enabled pointers left as-is (IsEnabled() already treats nil as
// true, so normalization doesn't need to materialize the default).
func Normalize(cfg *RuntimeConfig) (*RuntimeConfig, error) {
	var out RuntimeConfig
	if err := copier.CopyWithOption(&out, cfg, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}

	for i := range out.Providers {
		p := &out.Providers[i]
		p.BaseURL = stripURL(p.BaseURL)
		for f, u := range p.BaseURLByFormat {
			p.BaseURLByFormat[f] = stripURL(u)
		}
		if p.Format == "" && len(p.Formats) > 0 {
			p.Format = p.Formats[0]
		}
	}

	return &out, nil
}

// stripURL removes user-info and fragment from a URL string, leaving the
// scheme, host, path, and query intact (spec §3).
func stripURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.User = nil
	u.Fragment = ""
	return u.String()
}

// Migrate upgrades cfg in place to CurrentVersion, adding the defaults
// the spec's migration contract requires (spec §6): an empty
// modelAliases map and an empty rateLimits slice on every provider that
// lacks one, then bumping Version. Returns true if any change was made.
func Migrate(cfg *RuntimeConfig) bool {
	if cfg.Version >= CurrentVersion {
		return false
	}

	if cfg.ModelAliases == nil {
		cfg.ModelAliases = map[string]ModelAlias{}
	}
	for i := range cfg.Providers {
		if cfg.Providers[i].RateLimits == nil {
			cfg.Providers[i].RateLimits = []RateLimitBucket{}
		}
	}
	cfg.Version = CurrentVersion
	return true
}
