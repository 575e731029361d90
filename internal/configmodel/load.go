package configmodel

import (
	"encoding/json"
	"os"
	"sync/atomic"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"

	"github.com/Laisky/llm-router/common/logger"
)

// EnvConfigJSON is checked before a file path (spec §6).
const EnvConfigJSON = "LLM_ROUTER_CONFIG_JSON"

// EnvMasterKeyOverride overrides the config's masterKey when set (spec §6).
const EnvMasterKeyOverride = "LLM_ROUTER_MASTER_KEY"

// Load reads, migrates, normalizes, and validates a RuntimeConfig from
// either the LLM_ROUTER_CONFIG_JSON env var or, if unset, the file at
// path. godotenv.Load is called first (best-effort; a missing .env file
// is not an error) so apiKeyEnv lookups and tunables can be sourced from
// a local .env during development, matching the teacher's startup
// sequence.
func Load(path string) (*RuntimeConfig, error) {
	_ = godotenv.Load()

	raw, err := readRaw(path)
	if err != nil {
		return nil, err
	}

	var cfg RuntimeConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse runtime config json")
	}

	if migrated := Migrate(&cfg); migrated && path != "" && os.Getenv(EnvConfigJSON) == "" {
		persistBestEffort(path, &cfg)
	}

	if k := os.Getenv(EnvMasterKeyOverride); k != "" {
		cfg.MasterKey = k
	}

	normalized, err := Normalize(&cfg)
	if err != nil {
		return nil, errors.Wrap(err, "normalize runtime config")
	}

	if err := Validate(normalized); err != nil {
		return nil, errors.Wrap(err, "validate runtime config")
	}

	return normalized, nil
}

func readRaw(path string) ([]byte, error) {
	if raw := os.Getenv(EnvConfigJSON); raw != "" {
		return []byte(raw), nil
	}
	if path == "" {
		return nil, errors.Errorf("no config source: set %s or pass a config file path", EnvConfigJSON)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}
	return raw, nil
}

func persistBestEffort(path string, cfg *RuntimeConfig) {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		logger.Logger.Warn("failed to marshal migrated config, skipping persist", zap.Error(err))
		return
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		logger.Logger.Warn("failed to persist migrated config, continuing with in-memory version",
			zap.String("path", path), zap.Error(err))
	}
}

// Store holds the current config snapshot, swapped atomically by Watch so
// concurrent readers never observe a half-updated config (spec §9 "Live
// config reload").
type Store struct {
	current atomic.Pointer[RuntimeConfig]
}

// NewStore wraps an already-loaded config.
func NewStore(cfg *RuntimeConfig) *Store {
	s := &Store{}
	s.current.Store(cfg)
	return s
}

// Get returns the current snapshot. Safe for concurrent use with Swap.
func (s *Store) Get() *RuntimeConfig {
	return s.current.Load()
}

// Swap atomically replaces the snapshot.
func (s *Store) Swap(cfg *RuntimeConfig) {
	s.current.Store(cfg)
}

// Watch reloads the config from path whenever the file changes on disk
// and swaps it into store. Reload errors are logged and the previous
// snapshot is kept in place — a transient write (editor temp file, the
// migration's own best-effort persist) never takes the gateway down.
// Only meaningful when the config came from a file path, not
// LLM_ROUTER_CONFIG_JSON, since there's nothing to watch in the latter
// case. Runs until the returned watcher is closed.
func Watch(path string, store *Store) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create config file watcher")
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, errors.Wrapf(err, "watch config file %s", path)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				reloaded, err := Load(path)
				if err != nil {
					logger.Logger.Warn("config reload failed, keeping previous snapshot",
						zap.String("path", path), zap.Error(err))
					continue
				}
				store.Swap(reloaded)
				logger.Logger.Info("config reloaded", zap.String("path", path))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}()

	return watcher, nil
}
