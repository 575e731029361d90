package provideradaptor

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Laisky/llm-router/internal/configmodel"
	"github.com/Laisky/llm-router/internal/dialect"
)

const defaultUserAgent = "llm-router/1.0"

// hopByHop headers are never forwarded upstream nor back to the client
// (spec §4.5 step 6, §4.5 step 11).
var hopByHop = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailer":             true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

// IncomingCacheHeaders carries the subset of client request headers
// relevant to cache-hint and anthropic-passthrough propagation (spec §4.5
// step 6, §4.7 "Header propagation").
type IncomingCacheHeaders struct {
	PromptCacheKey       string
	PromptCacheRetention string
	AnthropicBeta        string
	AnthropicVersion     string
}

// BuildHeaders constructs the outbound request headers for one attempt
// against provider in target's dialect, per spec §4.5 step 6.
func BuildHeaders(provider *configmodel.Provider, apiKey string, target dialect.Dialect, incoming IncomingCacheHeaders) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")

	suppressUA := false
	for name, value := range provider.Headers {
		lower := strings.ToLower(name)
		if hopByHop[lower] {
			continue
		}
		if strings.ContainsAny(name, "\r\n") || strings.ContainsAny(value, "\r\n") {
			continue
		}
		if lower == "user-agent" {
			suppressUA = true
		}
		h.Set(name, value)
	}
	if !suppressUA && h.Get("User-Agent") == "" {
		h.Set("User-Agent", defaultUserAgent)
	}

	auth := provider.ResolvedAuth(target)
	applyAuth(h, auth, apiKey)

	if target == dialect.Claude {
		version := provider.AnthropicVersion
		if version == "" {
			version = "2023-06-01"
		}
		h.Set("anthropic-version", version)
		if provider.AnthropicBeta != "" {
			h.Set("anthropic-beta", provider.AnthropicBeta)
		}
	}

	mergeCacheHeaders(h, target, incoming)

	return h
}

func applyAuth(h http.Header, auth configmodel.Auth, apiKey string) {
	if apiKey == "" {
		return
	}
	switch auth.Kind {
	case configmodel.AuthBearer:
		prefix := auth.Prefix
		if prefix == "" {
			prefix = "Bearer "
		}
		h.Set("Authorization", prefix+apiKey)
	case configmodel.AuthXAPIKey:
		h.Set("x-api-key", apiKey)
	case configmodel.AuthHeader:
		if auth.Name != "" {
			h.Set(auth.Name, auth.Prefix+apiKey)
		}
	case configmodel.AuthNone:
	}
}

// mergeCacheHeaders copies cache-hint headers verbatim if not already
// set, and for claude targets CSV-appends any incoming anthropic-beta
// tokens and forwards anthropic-version (spec §4.7 "Header propagation").
func mergeCacheHeaders(h http.Header, target dialect.Dialect, incoming IncomingCacheHeaders) {
	if incoming.PromptCacheKey != "" && h.Get("x-prompt-cache-key") == "" {
		h.Set("x-prompt-cache-key", incoming.PromptCacheKey)
	}
	if incoming.PromptCacheRetention != "" && h.Get("x-prompt-cache-retention") == "" {
		h.Set("x-prompt-cache-retention", incoming.PromptCacheRetention)
	}

	if target != dialect.Claude {
		return
	}
	if incoming.AnthropicBeta != "" {
		existing := h.Get("anthropic-beta")
		h.Set("anthropic-beta", mergeCSV(existing, incoming.AnthropicBeta))
	}
	if incoming.AnthropicVersion != "" {
		h.Set("anthropic-version", incoming.AnthropicVersion)
	}
}

func mergeCSV(existing, incoming string) string {
	seen := map[string]bool{}
	var tokens []string
	add := func(csv string) {
		for _, tok := range strings.Split(csv, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" || seen[tok] {
				continue
			}
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}
	add(existing)
	add(incoming)
	return strings.Join(tokens, ",")
}

// StripHopByHop removes hop-by-hop headers from a response before it's
// relayed to the client (spec §4.5 step 11), along with
// content-encoding/content-length, which Go's http.Client has already
// decoded/invalidated.
func StripHopByHop(h http.Header) {
	for name := range h {
		if hopByHop[strings.ToLower(name)] {
			h.Del(name)
		}
	}
	h.Del("Content-Encoding")
	h.Del("Content-Length")
}

func formatRetryAfterSeconds(v string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
