// Package cachehint implements spec §4.7's bidirectional mapping
// between the two dialects' prompt-cache markers, applied to an
// already-translated request body before it's sent upstream. Grounded
// on `internal/configmodel/cache.go`'s memoization pattern
// (patrickmn/go-cache keyed by a stable derived key) for the
// deterministic-key memoization this package also needs, since the
// same request body hashed twice should reuse the same derived key
// rather than re-serializing and re-hashing it.
package cachehint

import (
	"encoding/json"
	"hash/fnv"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Laisky/llm-router/internal/dialect"
	"github.com/Laisky/llm-router/internal/translate"
)

const (
	maxSerializedInputBytes = 20 * 1024
	keyPrefix               = "llm-router:"
)

var derivedKeyCache = gocache.New(10*time.Minute, 10*time.Minute)

// Headers carries the subset of inbound request headers relevant to
// cache-hint propagation (spec §4.7 "Header propagation").
type Headers struct {
	PromptCacheKey       string // first of x-prompt-cache-key | prompt-cache-key | x-openai-prompt-cache-key | openai-prompt-cache-key
	PromptCacheRetention string // x-prompt-cache-retention
	AnthropicBeta        string // incoming anthropic-beta, CSV
	AnthropicVersion     string
}

// Apply mutates translatedBody in place, applying spec §4.7's mapping
// for the given source->target direction, using sourceBody (the
// pre-translation body, to read the source dialect's own markers) and
// the relevant inbound headers.
func Apply(source, target dialect.Dialect, sourceBody, translatedBody translate.Body, headers Headers) {
	switch {
	case source == dialect.Claude && target == dialect.OpenAI:
		applyClaudeToOpenAI(sourceBody, translatedBody, headers)
	case source == dialect.OpenAI && target == dialect.Claude:
		applyOpenAIToClaude(sourceBody, translatedBody, headers)
	}
}

func applyClaudeToOpenAI(sourceBody, translatedBody translate.Body, headers Headers) {
	if !hasAnyClaudeCacheControl(sourceBody) {
		return
	}
	if _, ok := translatedBody["prompt_cache_key"]; ok {
		return
	}

	key := headers.PromptCacheKey
	if key == "" {
		if k, ok := sourceBody["prompt_cache_key"].(string); ok {
			key = k
		}
	}
	if key == "" {
		key = DerivedKey(sourceBody)
	}
	translatedBody["prompt_cache_key"] = key

	if _, ok := translatedBody["prompt_cache_retention"]; !ok {
		if hasClaudeTTL(sourceBody, "1h") {
			translatedBody["prompt_cache_retention"] = "24h"
		} else {
			translatedBody["prompt_cache_retention"] = "in_memory"
		}
	}
}

func applyOpenAIToClaude(sourceBody, translatedBody translate.Body, headers Headers) {
	if _, ok := translatedBody["cache_control"]; ok {
		if cc, ok := translatedBody["cache_control"].(map[string]any); ok {
			normalizeCacheControl(cc)
		}
		return
	}

	if cc, ok := sourceBody["cache_control"].(map[string]any); ok {
		normalized := map[string]any{"type": "ephemeral"}
		if ttl, ok := cc["ttl"].(string); ok && (ttl == "5m" || ttl == "1h") {
			normalized["ttl"] = ttl
		}
		translatedBody["cache_control"] = normalized
		return
	}

	retention := headers.PromptCacheRetention
	if retention == "" {
		if r, ok := sourceBody["prompt_cache_retention"].(string); ok {
			retention = r
		}
	}
	switch retention {
	case "24h":
		translatedBody["cache_control"] = map[string]any{"type": "ephemeral", "ttl": "1h"}
		return
	case "in_memory":
		translatedBody["cache_control"] = map[string]any{"type": "ephemeral"}
		return
	}

	if headers.PromptCacheKey != "" {
		translatedBody["cache_control"] = map[string]any{"type": "ephemeral"}
	} else if _, ok := sourceBody["prompt_cache_key"]; ok {
		translatedBody["cache_control"] = map[string]any{"type": "ephemeral"}
	}
}

func normalizeCacheControl(cc map[string]any) {
	cc["type"] = "ephemeral"
	if ttl, ok := cc["ttl"].(string); ok && ttl != "5m" && ttl != "1h" {
		delete(cc, "ttl")
	}
}

func hasAnyClaudeCacheControl(body translate.Body) bool {
	if _, ok := body["cache_control"]; ok {
		return true
	}
	if scanForCacheControl(body["system"]) {
		return true
	}
	if scanForCacheControl(body["messages"]) {
		return true
	}
	if scanForCacheControl(body["tools"]) {
		return true
	}
	return false
}

func scanForCacheControl(v any) bool {
	switch x := v.(type) {
	case map[string]any:
		if _, ok := x["cache_control"]; ok {
			return true
		}
		for _, sub := range x {
			if scanForCacheControl(sub) {
				return true
			}
		}
	case []any:
		for _, item := range x {
			if scanForCacheControl(item) {
				return true
			}
		}
	}
	return false
}

func hasClaudeTTL(body translate.Body, ttl string) bool {
	found := false
	var walk func(v any)
	walk = func(v any) {
		if found {
			return
		}
		switch x := v.(type) {
		case map[string]any:
			if cc, ok := x["cache_control"].(map[string]any); ok {
				if t, _ := cc["ttl"].(string); t == ttl {
					found = true
					return
				}
			}
			for _, sub := range x {
				walk(sub)
			}
		case []any:
			for _, item := range x {
				walk(item)
			}
		}
	}
	walk(body["system"])
	walk(body["messages"])
	walk(body["tools"])
	walk(map[string]any{"cache_control": body["cache_control"]})
	return found
}

// DerivedKey computes the deterministic
// "llm-router:" + fnv1a32(stable_serialize({model, cache_control, system,
// tools, messages})) key from spec §4.7, truncating the serialization
// input at 20 KiB and memoizing by that truncated input so repeated
// requests for the same prompt prefix reuse the same key.
func DerivedKey(body translate.Body) string {
	stable := map[string]any{
		"model":         body["model"],
		"cache_control": body["cache_control"],
		"system":        body["system"],
		"tools":         body["tools"],
		"messages":      body["messages"],
	}
	raw, err := json.Marshal(stable)
	if err != nil {
		raw = []byte{}
	}
	if len(raw) > maxSerializedInputBytes {
		raw = raw[:maxSerializedInputBytes]
	}

	cacheKey := string(raw)
	if cached, ok := derivedKeyCache.Get(cacheKey); ok {
		return cached.(string)
	}

	h := fnv.New32a()
	_, _ = h.Write(raw)
	derived := keyPrefix + strconv.FormatUint(uint64(h.Sum32()), 10)
	derivedKeyCache.Set(cacheKey, derived, gocache.DefaultExpiration)
	return derived
}
