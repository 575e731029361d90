package configmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadTunablesDefaults(t *testing.T) {
	tn := LoadTunables()
	require.Equal(t, int64(1<<20), tn.MaxRequestBodyBytes)
	require.Equal(t, 60*time.Second, tn.UpstreamTimeout)
	require.Equal(t, 3, tn.OriginRetryAttempts)
	require.False(t, tn.AllowPolicyFallback)
}

func TestLoadTunablesClampsOutOfRange(t *testing.T) {
	t.Setenv("LLM_ROUTER_MAX_REQUEST_BODY_BYTES", "1")
	t.Setenv("LLM_ROUTER_UPSTREAM_TIMEOUT_MS", "1")
	t.Setenv("LLM_ROUTER_ORIGIN_RETRY_ATTEMPTS", "99")

	tn := LoadTunables()
	require.Equal(t, int64(4<<10), tn.MaxRequestBodyBytes)
	require.Equal(t, time.Second, tn.UpstreamTimeout)
	require.Equal(t, 10, tn.OriginRetryAttempts)
}

func TestLoadTunablesReadsOverrides(t *testing.T) {
	t.Setenv("LLM_ROUTER_ALLOW_POLICY_FALLBACK", "true")
	t.Setenv("LLM_ROUTER_FALLBACK_CIRCUIT_FAILURES", "5")

	tn := LoadTunables()
	require.True(t, tn.AllowPolicyFallback)
	require.Equal(t, 5, tn.FallbackCircuitFailures)
}
