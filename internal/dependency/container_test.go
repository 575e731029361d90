package dependency

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	doc := map[string]any{
		"version":   2,
		"masterKey": "secret-key",
		"providers": []map[string]any{
			{
				"id":      "acme",
				"baseUrl": "https://upstream.example.com",
				"formats": []string{"openai"},
				"apiKey":  "upstream-key",
				"models": []map[string]any{
					{"id": "gpt"},
				},
			},
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

// TestNewWiresAHealthyEngine exercises the full dig wiring: config load,
// store, breaker janitor, and gin engine assembly all the way through to
// a live HTTP response, without mocking any of the collaborators.
func TestNewWiresAHealthyEngine(t *testing.T) {
	path := writeTestConfig(t)

	container, err := New(context.Background(), Options{
		ConfigPath:       path,
		BreakerSweepSpec: "@every 1h",
	})
	require.NoError(t, err)
	defer container.Watcher().Close()
	defer container.Janitor().Stop()

	require.NotNil(t, container.Engine())
	require.Equal(t, "acme", container.Store().Get().Providers[0].ID)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	container.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

// TestNewRejectsMissingConfig propagates configmodel.Load's error
// instead of panicking on a nil RuntimeConfig.
func TestNewRejectsMissingConfig(t *testing.T) {
	_, err := New(context.Background(), Options{ConfigPath: filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)
}
