// Package breaker implements the per-candidate circuit-breaker state
// table from spec §4.4: a candidate that keeps failing retryably gets
// deferred (not removed) behind its healthier siblings until its
// cooldown passes. Grounded on the teacher's general state-table
// pattern (a guarded in-memory map behind a mutex, swept by a
// background job) generalized from channel-disable bookkeeping to
// per-candidate open/closed circuits.
package breaker

import (
	"fmt"
	"sync"
	"time"

	"github.com/Laisky/llm-router/internal/dialect"
)

// CandidateKey derives the breaker key "providerId/modelId@targetFormat"
// a dispatch candidate is tracked under (spec §4.4).
func CandidateKey(providerID, modelID string, targetFormat dialect.Dialect) string {
	return fmt.Sprintf("%s/%s@%s", providerID, modelID, targetFormat)
}

type entry struct {
	consecutiveRetryableFailures int
	openUntil                    time.Time
}

func (e *entry) isOpen(now time.Time) bool {
	return e != nil && e.openUntil.After(now)
}

// Store holds circuit state for every candidate key seen so far. The
// zero value is not usable; construct with NewStore. Safe for
// concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// NewStore returns an empty breaker store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// IsOpen reports whether key's circuit is currently open.
func (s *Store) IsOpen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key].isOpen(s.now())
}

// OpenUntil returns the time key's circuit clears, if it is open.
func (s *Store) OpenUntil(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !e.isOpen(s.now()) {
		return time.Time{}, false
	}
	return e.openUntil, true
}

// Success clears key's entry entirely (spec §4.4 "success clears the entry").
func (s *Store) Success(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// MarkRetryableFailure records one retryable failure against key. Once
// consecutiveRetryableFailures reaches failureThreshold the circuit
// opens for cooldown. If the circuit had already cleared its cooldown
// since the last failure, the counter resets to 1 instead of
// accumulating stale failures (spec §4.4 "if openUntil <= now the
// counter resets on the next failure").
func (s *Store) MarkRetryableFailure(key string, failureThreshold int, cooldown time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	} else if !e.openUntil.IsZero() && !e.openUntil.After(now) {
		e.consecutiveRetryableFailures = 0
		e.openUntil = time.Time{}
	}

	e.consecutiveRetryableFailures++
	if failureThreshold > 0 && e.consecutiveRetryableFailures >= failureThreshold && cooldown > 0 {
		e.openUntil = now.Add(cooldown)
	}
}

// SetCooldown applies a category-specific cooldown additively:
// openUntil = max(prev, now+cooldown) (spec §4.4 setCandidateCooldown).
// A zero or negative cooldown is a no-op.
func (s *Store) SetCooldown(key string, cooldown time.Duration) {
	if cooldown <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	candidate := s.now().Add(cooldown)
	if candidate.After(e.openUntil) {
		e.openUntil = candidate
	}
}

// Sweep deletes entries whose cooldown has fully elapsed and which have
// accumulated no failures since, bounding the map's growth across a
// long-running process. Called periodically by the janitor.
func (s *Store) Sweep() (removed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !e.openUntil.IsZero() && !e.openUntil.After(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}
