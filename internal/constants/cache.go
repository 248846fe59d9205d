package constants

import "time"

const (
	UserCachePrefix    = "user_subject" // User by token subject (CacheBuilder adds colon)
	UserCacheExpiry    = 24 * time.Hour
	CatalogCachePrefix = "catalog"
	CatalogCacheKey    = "services"
	CatalogCacheExpiry = 6 * time.Hour
)
