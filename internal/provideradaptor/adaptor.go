package provideradaptor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/Laisky/llm-router/internal/cachehint"
	"github.com/Laisky/llm-router/internal/dialect"
	"github.com/Laisky/llm-router/internal/resolver"
	"github.com/Laisky/llm-router/internal/translate"
)

// Result is the typed outcome of one attempt against one candidate
// (spec §4.5). Exactly one of Body or Stream is populated on success.
type Result struct {
	OK             bool
	Status         int
	Retryable      bool
	Kind           string
	Headers        http.Header
	Body           []byte
	Stream         io.ReadCloser
	Streaming      bool
	TranslateError bool
}

// Request bundles one attempt's inputs.
type Request struct {
	Candidate resolver.Candidate
	Source    dialect.Dialect
	Body      translate.Body
	Stream    bool
	Headers   IncomingCacheHeaders
	Translator translate.Translator
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Invoke sends one attempt to one candidate, implementing spec §4.5's
// numbered steps end to end except for steps 9-11 (streaming/non-stream
// response shaping), which internal/gateway performs on the outcome the
// dispatcher returns — this function returns the raw upstream
// Result, leaving translation of the *response* body to the caller so
// streaming responses are never buffered here.
func Invoke(ctx context.Context, req Request) (*Result, error) {
	target := req.Candidate.TargetFormat

	translated, err := req.Translator.TranslateRequest(req.Source, target, req.Candidate.Model.ID, req.Body, req.Stream)
	if err != nil {
		return &Result{
			OK:        false,
			Status:    400,
			Retryable: false,
			Kind:      "translation_error",
		}, nil
	}
	translated["model"] = req.Candidate.Model.ID

	cachehint.Apply(req.Source, target, req.Body, translated, cachehint.Headers{
		PromptCacheKey:       req.Headers.PromptCacheKey,
		PromptCacheRetention: req.Headers.PromptCacheRetention,
		AnthropicBeta:        req.Headers.AnthropicBeta,
		AnthropicVersion:     req.Headers.AnthropicVersion,
	})

	payload, err := json.Marshal(translated)
	if err != nil {
		return &Result{OK: false, Status: 400, Retryable: false, Kind: "translation_error"}, nil
	}

	url := ResolveUpstreamURL(req.Candidate.Provider.ResolvedBaseURL(target), target)
	apiKey := resolveAPIKey(req.Candidate)
	headers := BuildHeaders(req.Candidate.Provider, apiKey, target, req.Headers)

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer func() {
		if req.Stream == false {
			cancel()
		}
	}()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "build upstream request")
	}
	httpReq.Header = headers

	resp, err := req.HTTPClient.Do(httpReq)
	if err != nil {
		cancel()
		return &Result{OK: false, Status: 503, Retryable: true, Kind: "network_error"}, nil
	}

	translationNeeded := req.Source != target

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		defer cancel()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
		StripHopByHop(resp.Header)
		return &Result{
			OK:             false,
			Status:         resp.StatusCode,
			Headers:        resp.Header,
			Body:           body,
			TranslateError: translationNeeded,
		}, nil
	}

	StripHopByHop(resp.Header)

	if req.Stream && translationNeeded {
		return &Result{OK: true, Status: resp.StatusCode, Headers: resp.Header, Stream: resp.Body, Streaming: true, TranslateError: true}, nil
	}
	if req.Stream {
		defer cancel()
		return &Result{OK: true, Status: resp.StatusCode, Headers: resp.Header, Stream: resp.Body, Streaming: true}, nil
	}

	defer resp.Body.Close()
	defer cancel()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Result{OK: false, Status: 502, Retryable: true, Kind: "network_error"}, nil
	}
	return &Result{OK: true, Status: resp.StatusCode, Headers: resp.Header, Body: body, TranslateError: translationNeeded}, nil
}

func resolveAPIKey(c resolver.Candidate) string {
	if c.Provider.APIKey != "" {
		return c.Provider.APIKey
	}
	if c.Provider.APIKeyEnv != "" {
		return os.Getenv(c.Provider.APIKeyEnv)
	}
	return ""
}
