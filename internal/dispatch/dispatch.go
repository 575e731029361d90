// Package dispatch drives the ordered candidate list for one request:
// reorder by circuit state, attempt each candidate with jittered
// retry-with-backoff, classify failures, update circuit state, and stop
// at the first success or the first non-fallback-eligible failure (spec
// §4.4). Grounded on the teacher's `controller/relay.go` retry loop
// (`shouldRetry`, `retryTimes`, per-attempt channel selection),
// generalized from a DB-backed channel/ability retry to an in-memory
// candidate list reordered by `internal/breaker`.
package dispatch

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/Laisky/zap"

	"github.com/Laisky/llm-router/common"
	"github.com/Laisky/llm-router/common/helper"
	"github.com/Laisky/llm-router/common/logger"
	"github.com/Laisky/llm-router/internal/breaker"
	"github.com/Laisky/llm-router/internal/configmodel"
	"github.com/Laisky/llm-router/internal/dialect"
	"github.com/Laisky/llm-router/internal/observability"
	"github.com/Laisky/llm-router/internal/provideradaptor"
	"github.com/Laisky/llm-router/internal/resolver"
	"github.com/Laisky/llm-router/internal/translate"
)

// Outcome is the final disposition of a dispatched request.
type Outcome struct {
	Result      *provideradaptor.Result
	Candidate   resolver.Candidate
	Attempted   bool
	Synthesized bool
}

// Deps bundles the collaborators Dispatch needs per call; constructed
// once per process and passed through, since none of it is
// request-specific except what's threaded via Request.
type Deps struct {
	Store      *breaker.Store
	Translator translate.Translator
	HTTPClient *http.Client
	Tunables   configmodel.Tunables
	Cfg        *configmodel.Store
}

// Config returns the current runtime configuration snapshot, for callers
// (internal/gateway) that need it outside the dispatch path itself (model
// listing, provider counts). Reads through the live *configmodel.Store so
// a config file reload picked up by internal/configmodel.Watch is visible
// here without restarting the process.
func (d Deps) Config() *configmodel.RuntimeConfig {
	return d.Cfg.Get()
}

// Request is everything Dispatch needs to know about one inbound call.
type Request struct {
	Resolved *resolver.Resolved
	Source   dialect.Dialect
	Body     translate.Body
	Stream   bool
	Headers  provideradaptor.IncomingCacheHeaders
}

// Dispatch implements spec §4.4 end to end.
func Dispatch(ctx context.Context, deps Deps, req Request) Outcome {
	candidates := orderedCandidates(req.Resolved)
	candidates = breaker.Reorder(candidates, resolver.Candidate.Key, deps.Store)

	var last Outcome

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return last
		}

		outcome := attemptCandidate(ctx, deps, req, candidate)
		last = outcome

		if outcome.Result != nil && outcome.Result.OK {
			return outcome
		}
		if outcome.Result != nil && !outcome.Result.OK {
			cls := classifyResult(outcome.Result, deps.Tunables)
			if !cls.AllowFallback {
				return outcome
			}
		}
	}

	if last.Result == nil {
		last = Outcome{Synthesized: true, Result: synthesizedFailure(candidates)}
	}
	return last
}

func orderedCandidates(r *resolver.Resolved) []resolver.Candidate {
	out := make([]resolver.Candidate, 0, 1+len(r.Fallbacks))
	if r.Primary.Provider != nil {
		out = append(out, r.Primary)
	}
	out = append(out, r.Fallbacks...)
	return out
}

func attemptCandidate(ctx context.Context, deps Deps, req Request, candidate resolver.Candidate) Outcome {
	key := candidate.Key()
	attempts := deps.Tunables.OriginRetryAttempts

	var res *provideradaptor.Result
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return Outcome{Candidate: candidate, Attempted: true, Result: res}
		}

		start := time.Now()
		var err error
		res, err = provideradaptor.Invoke(ctx, provideradaptor.Request{
			Candidate:  candidate,
			Source:     req.Source,
			Body:       req.Body,
			Stream:     req.Stream,
			Headers:    req.Headers,
			Translator: deps.Translator,
			HTTPClient: deps.HTTPClient,
			Timeout:    deps.Tunables.UpstreamTimeout,
		})
		if err != nil {
			logger.Logger.Warn("provider adaptor call failed to start",
				zap.String("candidate", key), zap.String("error", maskCandidateSecret(candidate, err)))
			res = &provideradaptor.Result{OK: false, Status: 503, Retryable: true, Kind: "network_error"}
		}

		observability.GlobalRecorder.RecordDispatchAttempt(
			start, candidate.ProviderID, candidate.ModelID, string(candidate.TargetFormat), res.OK, res.Status)

		if res.OK {
			deps.Store.Success(key)
			return Outcome{Candidate: candidate, Attempted: true, Result: res}
		}

		cls := classifyResult(res, deps.Tunables)
		observability.GlobalRecorder.RecordError(cls.Category, "dispatch")

		if cls.Category == "auth_failed" && candidate.Provider != nil {
			logger.Logger.Warn("provider rejected credentials",
				zap.String("candidate", key),
				zap.String("api_key_hint", helper.MaskAPIKey(candidate.Provider.APIKey)))
		}

		if cls.RetryOrigin && attempt < attempts {
			delay := computeRetryDelay(deps.Tunables, attempt)
			logger.Logger.Debug("retrying candidate after retryable failure",
				zap.String("candidate", key), zap.String("category", cls.Category),
				zap.Int("attempt", attempt), zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return Outcome{Candidate: candidate, Attempted: true, Result: res}
			case <-time.After(delay):
			}
			continue
		}

		if provideradaptor.IsBreakerRetryable(cls.Category) {
			deps.Store.MarkRetryableFailure(key, deps.Tunables.FallbackCircuitFailures, deps.Tunables.FallbackCircuitCooldown)
			if deps.Store.IsOpen(key) {
				observability.GlobalRecorder.RecordCircuitState(candidate.ProviderID, candidate.ModelID, string(candidate.TargetFormat), true)
			}
		}
		if cls.OriginCooldown > 0 {
			deps.Store.SetCooldown(key, cls.OriginCooldown)
		}

		return Outcome{Candidate: candidate, Attempted: true, Result: res}
	}

	return Outcome{Candidate: candidate, Attempted: true, Result: res}
}

func classifyResult(res *provideradaptor.Result, tun configmodel.Tunables) provideradaptor.Classification {
	return provideradaptor.Classify(res.Kind, res.Status, res.Headers, res.Body, tun)
}

// computeRetryDelay implements spec §4.4's backoff formula:
// min(maxDelay, baseDelay*2^(attempt-1)) scaled by a uniform jitter in
// [0.5, 1.0].
func computeRetryDelay(tun configmodel.Tunables, attempt int) time.Duration {
	base := tun.OriginRetryBaseDelay
	backoff := base * time.Duration(1<<uint(attempt-1))
	if backoff > tun.OriginRetryMaxDelay {
		backoff = tun.OriginRetryMaxDelay
	}
	jitter := 0.5 + rand.Float64()*0.5
	return time.Duration(float64(backoff) * jitter)
}

// maskCandidateSecret renders err's message with candidate's provider API
// key (if any, e.g. echoed back into a dial or TLS error by the HTTP
// client) replaced by common.MaskSecret's placeholder, so a misconfigured
// provider never leaks its key into the warning log line.
func maskCandidateSecret(candidate resolver.Candidate, err error) string {
	msg := err.Error()
	if candidate.Provider == nil || candidate.Provider.APIKey == "" {
		return msg
	}
	return strings.ReplaceAll(msg, candidate.Provider.APIKey, common.MaskSecret(candidate.Provider.APIKey))
}

func synthesizedFailure(candidates []resolver.Candidate) *provideradaptor.Result {
	desc := "no candidates"
	if len(candidates) > 0 {
		desc = candidates[0].Key()
	}
	body := fmt.Sprintf(`{"error":{"message":"All providers failed. [%s] status=unavailable","type":"api_error"}}`, desc)
	return &provideradaptor.Result{
		OK:     false,
		Status: 503,
		Kind:   "all_candidates_failed",
		Body:   []byte(body),
	}
}
