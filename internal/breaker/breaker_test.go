package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/llm-router/internal/dialect"
)

func TestCandidateKeyShape(t *testing.T) {
	require.Equal(t, "or/gpt@openai", CandidateKey("or", "gpt", dialect.OpenAI))
}

func TestSuccessClearsEntry(t *testing.T) {
	s := NewStore()
	s.MarkRetryableFailure("k", 1, time.Minute)
	require.True(t, s.IsOpen("k"))
	s.Success("k")
	require.False(t, s.IsOpen("k"))
}

func TestMarkRetryableFailureOpensAtThreshold(t *testing.T) {
	s := NewStore()
	s.MarkRetryableFailure("k", 3, time.Minute)
	require.False(t, s.IsOpen("k"))
	s.MarkRetryableFailure("k", 3, time.Minute)
	require.False(t, s.IsOpen("k"))
	s.MarkRetryableFailure("k", 3, time.Minute)
	require.True(t, s.IsOpen("k"))
}

func TestMarkRetryableFailureResetsCounterAfterCooldownEnds(t *testing.T) {
	s := NewStore()
	frozen := time.Now()
	s.now = func() time.Time { return frozen }

	s.MarkRetryableFailure("k", 2, time.Minute)
	s.MarkRetryableFailure("k", 2, time.Minute)
	require.True(t, s.IsOpen("k"))

	// advance past the cooldown
	s.now = func() time.Time { return frozen.Add(2 * time.Minute) }
	require.False(t, s.IsOpen("k"))

	// one more failure should not immediately reopen the circuit,
	// since the counter reset when the cooldown elapsed
	s.MarkRetryableFailure("k", 2, time.Minute)
	require.False(t, s.IsOpen("k"))
}

func TestSetCooldownIsAdditiveMax(t *testing.T) {
	s := NewStore()
	frozen := time.Now()
	s.now = func() time.Time { return frozen }

	s.SetCooldown("k", 30*time.Second)
	until1, ok := s.OpenUntil("k")
	require.True(t, ok)

	// a shorter cooldown must not shrink the existing window
	s.SetCooldown("k", time.Second)
	until2, ok := s.OpenUntil("k")
	require.True(t, ok)
	require.Equal(t, until1, until2)

	// a longer cooldown extends it
	s.SetCooldown("k", time.Minute)
	until3, ok := s.OpenUntil("k")
	require.True(t, ok)
	require.True(t, until3.After(until2))
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	s := NewStore()
	frozen := time.Now()
	s.now = func() time.Time { return frozen }
	s.SetCooldown("k", time.Second)

	require.Equal(t, 0, s.Sweep())

	s.now = func() time.Time { return frozen.Add(time.Hour) }
	require.Equal(t, 1, s.Sweep())
	require.False(t, s.IsOpen("k"))
}

func TestReorderPlacesOpenCircuitsAfterClosedAndSortsByOpenUntil(t *testing.T) {
	s := NewStore()
	frozen := time.Now()
	s.now = func() time.Time { return frozen }

	s.SetCooldown("b", 10*time.Second)
	s.SetCooldown("a", 5*time.Second)

	candidates := []string{"a", "closed1", "b", "closed2"}
	out := Reorder(candidates, func(k string) string { return k }, s)

	require.Equal(t, []string{"closed1", "closed2", "a", "b"}, out)
}

func TestReorderNeverDropsCandidates(t *testing.T) {
	s := NewStore()
	candidates := []string{"x", "y", "z"}
	out := Reorder(candidates, func(k string) string { return k }, s)
	require.ElementsMatch(t, candidates, out)
}
