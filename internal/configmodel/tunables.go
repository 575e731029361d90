package configmodel

import (
	"os"
	"strconv"
	"time"
)

// Tunables holds the env-driven knobs from spec §5, already bounds-clamped.
type Tunables struct {
	MaxRequestBodyBytes int64
	UpstreamTimeout     time.Duration

	OriginRetryAttempts    int
	OriginRetryBaseDelay   time.Duration
	OriginRetryMaxDelay    time.Duration
	OriginFallbackCooldown time.Duration
	OriginRateLimitCooldown time.Duration
	OriginBillingCooldown  time.Duration
	OriginAuthCooldown     time.Duration
	OriginPolicyCooldown   time.Duration
	AllowPolicyFallback    bool

	FallbackCircuitFailures int
	FallbackCircuitCooldown time.Duration
}

// LoadTunables reads the LLM_ROUTER_* env vars, applying spec §5's
// defaults and bounds. Out-of-range values are clamped rather than
// rejected, so a misconfigured operator still gets a running gateway.
func LoadTunables() Tunables {
	return Tunables{
		MaxRequestBodyBytes: clampInt64(envInt64("LLM_ROUTER_MAX_REQUEST_BODY_BYTES", 1<<20), 4<<10, 20<<20),
		UpstreamTimeout:     clampDuration(envMillis("LLM_ROUTER_UPSTREAM_TIMEOUT_MS", 60_000), time.Second, 300*time.Second),

		OriginRetryAttempts:  clampInt(envInt("LLM_ROUTER_ORIGIN_RETRY_ATTEMPTS", 3), 1, 10),
		OriginRetryBaseDelay: envMillis("LLM_ROUTER_ORIGIN_RETRY_BASE_DELAY_MS", 250),
		OriginRetryMaxDelay:  envMillis("LLM_ROUTER_ORIGIN_RETRY_MAX_DELAY_MS", 3000),

		OriginFallbackCooldown:  envMillis("LLM_ROUTER_ORIGIN_FALLBACK_COOLDOWN_MS", 45_000),
		OriginRateLimitCooldown: envMillis("LLM_ROUTER_ORIGIN_RATE_LIMIT_COOLDOWN_MS", 30_000),
		OriginBillingCooldown:   envMillis("LLM_ROUTER_ORIGIN_BILLING_COOLDOWN_MS", 900_000),
		OriginAuthCooldown:      envMillis("LLM_ROUTER_ORIGIN_AUTH_COOLDOWN_MS", 600_000),
		OriginPolicyCooldown:    envMillis("LLM_ROUTER_ORIGIN_POLICY_COOLDOWN_MS", 120_000),
		AllowPolicyFallback:     envBool("LLM_ROUTER_ALLOW_POLICY_FALLBACK", false),

		FallbackCircuitFailures: envInt("LLM_ROUTER_FALLBACK_CIRCUIT_FAILURES", 2),
		FallbackCircuitCooldown: envMillis("LLM_ROUTER_FALLBACK_CIRCUIT_COOLDOWN_MS", 30_000),
	}
}

func envInt64(key string, def int64) int64 {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envMillis(key string, defMillis int64) time.Duration {
	return time.Duration(envInt64(key, defMillis)) * time.Millisecond
}

func envBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
