package provideradaptor

import (
	"net/http"
	"strings"
	"time"

	"github.com/Laisky/llm-router/internal/configmodel"
)

// Classification is the derived disposition of one failed attempt
// (spec §4.6).
type Classification struct {
	// Category is the failure's taxonomy name, e.g. "rate_limited".
	Category string
	// RetryOrigin reports whether the dispatcher should retry the same
	// candidate (spec §4.4 step 3) rather than moving to the next one.
	RetryOrigin bool
	// AllowFallback reports whether the dispatcher may move on to the
	// next candidate at all; false means stop and surface this result.
	AllowFallback bool
	// OriginCooldown is how long to keep the candidate's circuit open
	// via setCandidateCooldown, additive-max with any existing window.
	// Zero means don't extend the cooldown for this failure.
	OriginCooldown time.Duration
}

// breakerRetryableCategories increment a candidate's circuit-breaker
// failure counter (spec §4.4 "Circuit breaker"), independent of whether
// the dispatcher retries the same candidate immediately.
var breakerRetryableCategories = map[string]bool{
	"temporary_error": true,
	"network_error":   true,
	"rate_limited":    true,
}

// IsBreakerRetryable reports whether category counts toward a
// candidate's consecutive-retryable-failure total.
func IsBreakerRetryable(category string) bool {
	return breakerRetryableCategories[category]
}

const sniffWindow = 4 * 1024

var billingHints = []string{
	"insufficient_quota", "insufficient quota", "insufficient balance",
	"insufficient credits", "not enough credits", "out of credits",
	"payment required", "billing hard limit", "quota exceeded",
}

var authHints = []string{
	"invalid api key", "incorrect api key", "api key not valid",
	"authentication", "unauthorized", "permission denied", "forbidden",
}

var policyHints = []string{
	"moderation", "policy_violation", "content policy", "safety",
	"unsafe", "flagged",
}

// Classify implements spec §4.6's failure-classification table. kind is
// the provideradaptor-internal failure kind set on Result (e.g.
// "translation_error", "network_error") when the attempt never reached
// a status code; status/headers/body describe an upstream HTTP
// response when it did.
func Classify(kind string, status int, headers http.Header, body []byte, tun configmodel.Tunables) Classification {
	switch kind {
	case "translation_error":
		return Classification{Category: "configuration_error", AllowFallback: true, OriginCooldown: tun.OriginFallbackCooldown}
	case "not_supported_error":
		return Classification{Category: "not_supported_error", AllowFallback: true}
	case "network_error":
		return Classification{Category: "network_error", RetryOrigin: true, AllowFallback: true}
	}

	sample := body
	if len(sample) > sniffWindow {
		sample = sample[:sniffWindow]
	}
	lower := strings.ToLower(string(sample))

	switch {
	case status == 429:
		cooldown := tun.OriginRateLimitCooldown
		if secs, ok := formatRetryAfterSeconds(headers.Get("Retry-After")); ok {
			cooldown = time.Duration(secs) * time.Second
		}
		return Classification{Category: "rate_limited", AllowFallback: true, OriginCooldown: cooldown}

	case status == 402:
		return Classification{Category: "billing_exhausted", AllowFallback: true, OriginCooldown: tun.OriginBillingCooldown}

	case status == 401:
		return Classification{Category: "auth_failed", AllowFallback: true, OriginCooldown: tun.OriginAuthCooldown}

	case status == 403:
		switch {
		case containsAny(lower, billingHints):
			return Classification{Category: "billing_exhausted", AllowFallback: true, OriginCooldown: tun.OriginBillingCooldown}
		case containsAny(lower, policyHints):
			return Classification{Category: "policy_blocked", AllowFallback: tun.AllowPolicyFallback, OriginCooldown: tun.OriginPolicyCooldown}
		case containsAny(lower, authHints):
			return Classification{Category: "auth_failed", AllowFallback: true, OriginCooldown: tun.OriginAuthCooldown}
		default:
			return Classification{Category: "forbidden", AllowFallback: true, OriginCooldown: tun.OriginAuthCooldown}
		}

	case status == 404 || status == 410:
		return Classification{Category: "not_found", AllowFallback: true, OriginCooldown: tun.OriginFallbackCooldown}

	case status == 408 || status == 409 || status >= 500:
		cooldown := time.Duration(0)
		if secs, ok := formatRetryAfterSeconds(headers.Get("Retry-After")); ok {
			cooldown = time.Duration(secs) * time.Second
		}
		return Classification{Category: "temporary_error", RetryOrigin: true, AllowFallback: true, OriginCooldown: cooldown}

	case status == 400 || status == 413 || status == 422:
		return Classification{Category: "invalid_request"}

	case status >= 400 && status < 500:
		return Classification{Category: "client_error"}

	default:
		return Classification{Category: "unknown_error", AllowFallback: true}
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
