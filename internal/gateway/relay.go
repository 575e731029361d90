package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/llm-router/common"
	"github.com/Laisky/llm-router/common/ctxkey"
	"github.com/Laisky/llm-router/internal/dialect"
	"github.com/Laisky/llm-router/internal/dispatch"
	"github.com/Laisky/llm-router/internal/provideradaptor"
	"github.com/Laisky/llm-router/internal/resolver"
	"github.com/Laisky/llm-router/internal/streaming"
	"github.com/Laisky/llm-router/internal/translate"
)

// healthHandler answers spec §4.1's unauthenticated liveness probe.
func healthHandler(deps dispatch.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"providers": len(deps.Config().Providers),
		})
	}
}

// rootHandler answers the unauthenticated service descriptor at `/`.
func rootHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "llm-router",
			"routes": gin.H{
				"models":     []string{"/v1/models", "/openai/v1/models", "/anthropic/v1/models"},
				"openai":     []string{"/v1/chat/completions", "/openai/v1/chat/completions"},
				"claude":     []string{"/v1/messages", "/anthropic/v1/messages"},
				"autodetect": []string{"/"},
			},
		})
	}
}

// modelsHandler lists models, filtered to filter's dialect (empty means
// unfiltered), per spec §4.1's three `/v1/models` route variants.
func modelsHandler(deps dispatch.Deps, filter dialect.Dialect) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries := listModels(deps.Config(), filter)
		c.JSON(http.StatusOK, gin.H{"object": "list", "data": entries})
	}
}

// notFoundHandler implements spec §4.1's catch-all 404.
func notFoundHandler(c *gin.Context) {
	writeError(c, http.StatusNotFound, "not_found", "Not found")
}

// relayHandler implements spec §4.2-§4.9's request path: detect/pin the
// source dialect, resolve the requested model to a candidate chain,
// dispatch it through internal/dispatch, and shape the response back
// into the client's dialect. pinned is the empty string for the
// auto-detecting routes.
func relayHandler(deps dispatch.Deps, pinned dialect.Dialect) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawBody, err := common.GetRequestBody(c)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(c, http.StatusRequestEntityTooLarge, "invalid_request_error", "request body exceeds the maximum allowed size")
				return
			}
			writeError(c, http.StatusBadRequest, "invalid_request_error", "failed to read request body")
			return
		}
		if logErr := common.LogClientRequestPayload(c, "relay", common.DefaultLogBodyLimit); logErr != nil {
			gmw.GetLogger(c).Warn("failed to log client request payload", zap.Error(logErr))
		}

		var body translate.Body
		if err := json.Unmarshal(rawBody, &body); err != nil {
			writeError(c, http.StatusBadRequest, "invalid_request_error", "request body is not valid JSON")
			return
		}

		source := pinned
		if source == "" {
			source = dialect.Detect(c.GetHeader("anthropic-version"), body)
		}
		c.Set(ctxkey.RequestDialect, string(source))

		modelRef, _ := body["model"].(string)
		resolved, err := resolver.Resolve(deps.Config(), modelRef, source)
		if err != nil {
			writeDialectError(c, source, http.StatusBadRequest, "invalid_request_error", err.Error())
			return
		}
		c.Set(ctxkey.ResolvedModel, resolved.ResolvedModel)

		stream := dialect.StreamRequested(source, body)

		outcome := dispatch.Dispatch(c.Request.Context(), deps, dispatch.Request{
			Resolved: resolved,
			Source:   source,
			Body:     body,
			Stream:   stream,
			Headers:  incomingCacheHeaders(c.Request),
		})

		writeOutcome(c, source, deps.Translator, outcome)
	}
}

func incomingCacheHeaders(r *http.Request) provideradaptor.IncomingCacheHeaders {
	return provideradaptor.IncomingCacheHeaders{
		PromptCacheKey:       r.Header.Get("x-prompt-cache-key"),
		PromptCacheRetention: r.Header.Get("x-prompt-cache-retention"),
		AnthropicBeta:        r.Header.Get("anthropic-beta"),
		AnthropicVersion:     r.Header.Get("anthropic-version"),
	}
}

func writeOutcome(c *gin.Context, source dialect.Dialect, translator translate.Translator, outcome dispatch.Outcome) {
	res := outcome.Result
	if res == nil {
		writeDialectError(c, source, http.StatusInternalServerError, "api_error", "no response produced")
		return
	}

	if !res.OK {
		writeFailure(c, source, outcome)
		return
	}

	target := outcome.Candidate.TargetFormat

	if res.Streaming {
		writeStreamingSuccess(c, source, target, translator, res)
		return
	}
	writeBufferedSuccess(c, source, target, translator, res)
}

func writeFailure(c *gin.Context, source dialect.Dialect, outcome dispatch.Outcome) {
	res := outcome.Result
	status := res.Status
	if status == 0 {
		status = http.StatusBadGateway
	}

	if !res.TranslateError && !outcome.Synthesized {
		for k, v := range res.Headers {
			c.Writer.Header()[k] = v
		}
		c.Data(status, "application/json", res.Body)
		return
	}

	message := extractUpstreamMessage(res.Body)
	category := res.Kind
	if category == "" {
		category = "api_error"
	}
	writeDialectError(c, source, status, category, message)
}

func writeBufferedSuccess(c *gin.Context, source, target dialect.Dialect, translator translate.Translator, res *provideradaptor.Result) {
	if !res.TranslateError || source == target {
		for k, v := range res.Headers {
			c.Writer.Header()[k] = v
		}
		c.Data(res.Status, "application/json", res.Body)
		return
	}

	var decoded translate.Body
	if err := json.Unmarshal(res.Body, &decoded); err != nil {
		writeDialectError(c, source, http.StatusBadGateway, "api_error", "Provider returned invalid JSON.")
		return
	}
	translated, err := translator.TranslateResponse(target, source, decoded)
	if err != nil {
		writeDialectError(c, source, http.StatusBadGateway, "api_error", "failed to translate upstream response")
		return
	}
	c.JSON(res.Status, translated)
}

func writeStreamingSuccess(c *gin.Context, source, target dialect.Dialect, translator translate.Translator, res *provideradaptor.Result) {
	defer res.Stream.Close()
	common.SetEventStreamHeaders(c)
	c.Writer.WriteHeader(res.Status)

	if !res.TranslateError || source == target {
		copyRawStream(c.Request.Context(), res.Stream, c.Writer, c.Writer)
		return
	}

	state := &translate.StreamState{}
	var err error
	switch {
	case target == dialect.OpenAI && source == dialect.Claude:
		err = streaming.PumpOpenAIToClaude(c.Request.Context(), res.Stream, c.Writer, c.Writer, translator, state)
	case target == dialect.Claude && source == dialect.OpenAI:
		err = streaming.PumpClaudeToOpenAI(c.Request.Context(), res.Stream, c.Writer, c.Writer, translator, state)
	}
	if err != nil {
		gmw.GetLogger(c).Warn("streaming translation ended with error", zap.Error(err))
	}
}

func copyRawStream(ctx context.Context, stream io.Reader, w io.Writer, flush streaming.Flusher) {
	buf := make([]byte, 32*1024)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := stream.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			flush.Flush()
		}
		if err != nil {
			return
		}
	}
}

func extractUpstreamMessage(body []byte) string {
	if len(body) == 0 {
		return "upstream request failed"
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err == nil {
		if errObj, ok := decoded["error"].(map[string]any); ok {
			if msg, ok := errObj["message"].(string); ok && msg != "" {
				return msg
			}
		}
		if msg, ok := decoded["message"].(string); ok && msg != "" {
			return msg
		}
	}
	const previewLimit = 512
	if len(body) > previewLimit {
		return string(body[:previewLimit])
	}
	return string(body)
}

// writeDialectError shapes an error envelope in source's wire dialect,
// per spec §7's error taxonomy.
func writeDialectError(c *gin.Context, source dialect.Dialect, status int, category, message string) {
	if source == dialect.Claude {
		c.JSON(status, gin.H{
			"type": "error",
			"error": gin.H{
				"type":    category,
				"message": message,
			},
		})
		return
	}
	writeError(c, status, category, message)
}
