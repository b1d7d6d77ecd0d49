package config

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

var (
	// Cache instances for different data types
	StatsCache   *cache.Cache
	CatalogCache *cache.Cache
)

const (
	// Cache durations
	statsCacheDuration   = 10 * time.Minute
	catalogCacheDuration = 12 * time.Hour

	// Cleanup intervals
	statsCleanupInterval   = 30 * time.Minute
	catalogCleanupInterval = 24 * time.Hour
)

func InitCache() {
	// Statistics rows change monthly; the catalog almost never.
	StatsCache = cache.New(statsCacheDuration, statsCleanupInterval)
	CatalogCache = cache.New(catalogCacheDuration, catalogCleanupInterval)
}

func ClearAllCaches() {
	StatsCache.Flush()
	CatalogCache.Flush()
}

func GetCacheKey(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key += ":" + fmt.Sprintf("%v", param)
	}
	return key
}
