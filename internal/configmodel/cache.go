package configmodel

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// modelListCache memoizes the derived /v1/models response bodies per
// config snapshot and filter dialect, so repeated listing requests don't
// re-walk every provider's model list on every call (spec §3 "model-list
// cache keyed by the config object identity"). Keyed by the snapshot's
// pointer identity plus the requested filter, since a new snapshot is a
// new pointer (Store.Swap never mutates in place).
var modelListCache = gocache.New(10*time.Minute, 10*time.Minute)

// ModelListCacheKey derives the cache key for cfg's model list under the
// given filter ("" for unfiltered, else a dialect value).
func ModelListCacheKey(cfg *RuntimeConfig, filter string) string {
	return fmt.Sprintf("%p:%s", cfg, filter)
}

// GetCachedModelList returns a previously cached payload, if present.
func GetCachedModelList(key string) (any, bool) {
	return modelListCache.Get(key)
}

// SetCachedModelList stores payload under key with the cache's default
// expiration.
func SetCachedModelList(key string, payload any) {
	modelListCache.Set(key, payload, gocache.DefaultExpiration)
}
