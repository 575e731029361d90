package provideradaptor

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/llm-router/internal/configmodel"
)

func testTunables() configmodel.Tunables {
	return configmodel.Tunables{
		OriginFallbackCooldown:  45 * time.Second,
		OriginRateLimitCooldown: 30 * time.Second,
		OriginBillingCooldown:   15 * time.Minute,
		OriginAuthCooldown:      10 * time.Minute,
		OriginPolicyCooldown:    2 * time.Minute,
		AllowPolicyFallback:     false,
	}
}

func TestClassifyNetworkErrorRetriesSameCandidate(t *testing.T) {
	c := Classify("network_error", 0, http.Header{}, nil, testTunables())
	require.Equal(t, "network_error", c.Category)
	require.True(t, c.RetryOrigin)
	require.True(t, c.AllowFallback)
	require.True(t, IsBreakerRetryable(c.Category))
}

func TestClassifyTranslationErrorAllowsFallbackButNotRetry(t *testing.T) {
	c := Classify("translation_error", 0, http.Header{}, nil, testTunables())
	require.Equal(t, "configuration_error", c.Category)
	require.False(t, c.RetryOrigin)
	require.True(t, c.AllowFallback)
	require.Equal(t, 45*time.Second, c.OriginCooldown)
}

func TestClassifyRateLimitUsesRetryAfterHeader(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "12")
	c := Classify("", 429, h, nil, testTunables())
	require.Equal(t, "rate_limited", c.Category)
	require.False(t, c.RetryOrigin)
	require.Equal(t, 12*time.Second, c.OriginCooldown)
	require.True(t, IsBreakerRetryable(c.Category))
}

func TestClassifyRateLimitFallsBackToDefaultCooldown(t *testing.T) {
	c := Classify("", 429, http.Header{}, nil, testTunables())
	require.Equal(t, "rate_limited", c.Category)
	require.Equal(t, 30*time.Second, c.OriginCooldown)
}

func TestClassifyBillingExhausted(t *testing.T) {
	c := Classify("", 402, http.Header{}, nil, testTunables())
	require.Equal(t, "billing_exhausted", c.Category)
	require.False(t, c.RetryOrigin)
	require.True(t, c.AllowFallback)
	require.Equal(t, 15*time.Minute, c.OriginCooldown)
}

func TestClassifyAuthFailed(t *testing.T) {
	c := Classify("", 401, http.Header{}, nil, testTunables())
	require.Equal(t, "auth_failed", c.Category)
	require.Equal(t, 10*time.Minute, c.OriginCooldown)
}

func TestClassify403SniffsBillingHint(t *testing.T) {
	body := []byte(`{"error":{"message":"quota exceeded for this key"}}`)
	c := Classify("", 403, http.Header{}, body, testTunables())
	require.Equal(t, "billing_exhausted", c.Category)
}

func TestClassify403SniffsPolicyHintRespectsAllowPolicyFallback(t *testing.T) {
	body := []byte(`{"error":{"message":"blocked by content policy"}}`)
	tun := testTunables()
	c := Classify("", 403, http.Header{}, body, tun)
	require.Equal(t, "policy_blocked", c.Category)
	require.False(t, c.AllowFallback)

	tun.AllowPolicyFallback = true
	c = Classify("", 403, http.Header{}, body, tun)
	require.True(t, c.AllowFallback)
}

func TestClassify403SniffsAuthHint(t *testing.T) {
	body := []byte(`{"error":{"message":"unauthorized access"}}`)
	c := Classify("", 403, http.Header{}, body, testTunables())
	require.Equal(t, "auth_failed", c.Category)
}

func TestClassify403NoHintIsForbidden(t *testing.T) {
	body := []byte(`{"error":{"message":"you cannot do that"}}`)
	c := Classify("", 403, http.Header{}, body, testTunables())
	require.Equal(t, "forbidden", c.Category)
	require.True(t, c.AllowFallback)
}

func TestClassifyNotFound(t *testing.T) {
	c := Classify("", 404, http.Header{}, nil, testTunables())
	require.Equal(t, "not_found", c.Category)
	require.True(t, c.AllowFallback)
}

func TestClassifyServerErrorIsTemporaryAndRetryableWithoutCooldownByDefault(t *testing.T) {
	c := Classify("", 503, http.Header{}, nil, testTunables())
	require.Equal(t, "temporary_error", c.Category)
	require.True(t, c.RetryOrigin)
	require.True(t, IsBreakerRetryable(c.Category))
	require.Equal(t, time.Duration(0), c.OriginCooldown)
}

func TestClassifyServerErrorHonorsRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "7")
	c := Classify("", 500, h, nil, testTunables())
	require.Equal(t, 7*time.Second, c.OriginCooldown)
}

func TestClassifyInvalidRequestBlocksFallback(t *testing.T) {
	c := Classify("", 422, http.Header{}, nil, testTunables())
	require.Equal(t, "invalid_request", c.Category)
	require.False(t, c.AllowFallback)
	require.False(t, c.RetryOrigin)
}

func TestClassifyOtherClientErrorBlocksFallback(t *testing.T) {
	c := Classify("", 418, http.Header{}, nil, testTunables())
	require.Equal(t, "client_error", c.Category)
	require.False(t, c.AllowFallback)
}

func TestClassifyUnknownStatusAllowsFallback(t *testing.T) {
	c := Classify("", 999, http.Header{}, nil, testTunables())
	require.Equal(t, "unknown_error", c.Category)
	require.True(t, c.AllowFallback)
}
