package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/llm-router/internal/breaker"
	"github.com/Laisky/llm-router/internal/configmodel"
	"github.com/Laisky/llm-router/internal/dialect"
	"github.com/Laisky/llm-router/internal/dispatch"
	"github.com/Laisky/llm-router/internal/translate/openaiclaude"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testTunables() configmodel.Tunables {
	return configmodel.Tunables{
		MaxRequestBodyBytes:     1 << 20,
		UpstreamTimeout:         5 * time.Second,
		OriginRetryAttempts:     1,
		OriginRetryBaseDelay:    time.Millisecond,
		OriginRetryMaxDelay:     time.Millisecond,
		FallbackCircuitFailures: 2,
		FallbackCircuitCooldown: time.Minute,
	}
}

func testConfig(upstream string) *configmodel.RuntimeConfig {
	return &configmodel.RuntimeConfig{
		Version:   configmodel.CurrentVersion,
		MasterKey: "secret-key",
		Providers: []configmodel.Provider{
			{
				ID:      "acme",
				BaseURL: upstream,
				Formats: []dialect.Dialect{dialect.OpenAI},
				APIKey:  "upstream-key",
				Models: []configmodel.ModelEntry{
					{ID: "gpt"},
				},
			},
		},
	}
}

func testEngine(t *testing.T, upstream string) *gin.Engine {
	t.Helper()
	cfg := testConfig(upstream)
	tun := testTunables()
	deps := dispatch.Deps{
		Store:      breaker.NewStore(),
		Translator: openaiclaude.New(),
		HTTPClient: http.DefaultClient,
		Tunables:   tun,
		Cfg:        configmodel.NewStore(cfg),
	}
	return NewEngine(cfg, tun, deps, nil)
}

func TestHealthIsUnauthenticated(t *testing.T) {
	engine := testEngine(t, "http://unused.invalid")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestModelsRouteRejectsMissingAuth(t *testing.T) {
	engine := testEngine(t, "http://unused.invalid")

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestModelsRouteListsEnabledModels(t *testing.T) {
	engine := testEngine(t, "http://unused.invalid")

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []modelEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "acme/gpt", body.Data[0].ID)
}

func TestBodyTooLargeRejected(t *testing.T) {
	cfg := testConfig("http://unused.invalid")
	tun := testTunables()
	tun.MaxRequestBodyBytes = 4 << 10
	deps := dispatch.Deps{
		Store:      breaker.NewStore(),
		Translator: openaiclaude.New(),
		HTTPClient: http.DefaultClient,
		Tunables:   tun,
		Cfg:        configmodel.NewStore(cfg),
	}
	engine := NewEngine(cfg, tun, deps, nil)

	huge := bytes.Repeat([]byte("a"), 5<<10)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(huge))
	req.Header.Set("Authorization", "Bearer secret-key")
	req.ContentLength = int64(len(huge))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRelayRouteDispatchesToUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","model":"backend-model"}`))
	}))
	defer upstream.Close()

	engine := testEngine(t, upstream.URL)

	reqBody := `{"model":"acme/gpt","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewBufferString(reqBody))
	req.Header.Set("Authorization", "Bearer secret-key")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "chatcmpl-1")
}

func TestRelayRouteUnknownModelReturnsBadRequest(t *testing.T) {
	engine := testEngine(t, "http://unused.invalid")

	reqBody := `{"model":"acme/does-not-exist","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewBufferString(reqBody))
	req.Header.Set("Authorization", "Bearer secret-key")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotFoundFallback(t *testing.T) {
	engine := testEngine(t, "http://unused.invalid")

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflightAdvertisesAllowedMethods(t *testing.T) {
	cfg := testConfig("http://unused.invalid")
	cfg.CORSAllowAll = true
	tun := testTunables()
	deps := dispatch.Deps{
		Store:      breaker.NewStore(),
		Translator: openaiclaude.New(),
		HTTPClient: http.DefaultClient,
		Tunables:   tun,
		Cfg:        configmodel.NewStore(cfg),
	}
	engine := NewEngine(cfg, tun, deps, nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/chat/completions", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
}
