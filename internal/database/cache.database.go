package database

import (
	"context"
	"fmt"
	"time"
	"vmtracker/config"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/valkey-io/valkey-go"
)

// Valkey Database Index Organization
// Each database index provides logical separation for different cache categories
const (
	// GENERAL_CACHE_INDEX (DB 0) - General purpose caching
	GENERAL_CACHE_INDEX = iota

	// USER_CACHE_INDEX (DB 1) - Users resolved from token subjects
	USER_CACHE_INDEX

	// CATALOG_CACHE_INDEX (DB 2) - Maintenance service catalog listings
	CATALOG_CACHE_INDEX
)

// Cache holds one client per logical database. Every field is nil when no
// cache address is configured and callers skip caching in that case.
type Cache struct {
	General valkey.Client
	User    valkey.Client
	Catalog valkey.Client
}

func (c Cache) Enabled() bool {
	return c.General != nil
}

func (c Cache) Close() {
	for _, client := range []valkey.Client{c.General, c.User, c.Catalog} {
		if client != nil {
			client.Close()
		}
	}
}

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")

	if !config.CacheEnabled() {
		log.Warn("cache address or port is empty, running without cache")
		return nil
	}

	log.Info("initializing cache database")
	address := fmt.Sprintf("%s:%d", config.DatabaseCacheAddress, config.DatabaseCachePort)

	var cacheDB Cache
	var err error

	cacheDB.General, err = newCacheClient(address, GENERAL_CACHE_INDEX)
	if err != nil {
		return log.Err("failed to create general valkey client", err)
	}

	cacheDB.User, err = newCacheClient(address, USER_CACHE_INDEX)
	if err != nil {
		cacheDB.Close()
		return log.Err("failed to create user valkey client", err)
	}

	cacheDB.Catalog, err = newCacheClient(address, CATALOG_CACHE_INDEX)
	if err != nil {
		cacheDB.Close()
		return log.Err("failed to create catalog valkey client", err)
	}

	s.Cache = cacheDB

	if config.DatabaseCacheReset != -1 {
		go clearCacheDB(config.DatabaseCacheReset, cacheDB)
	}

	return nil
}

func newCacheClient(address string, index int) (valkey.Client, error) {
	return valkey.NewClient(
		valkey.ClientOption{
			InitAddress: []string{address},
			SelectDB:    index,
		},
	)
}

func (c Cache) clientForIndex(index int) (valkey.Client, string) {
	switch index {
	case GENERAL_CACHE_INDEX:
		return c.General, "General"
	case USER_CACHE_INDEX:
		return c.User, "User"
	case CATALOG_CACHE_INDEX:
		return c.Catalog, "Catalog"
	default:
		return nil, ""
	}
}

func clearCacheDB(index int, cacheDB Cache) {
	log := logger.New("database").File("cache.database").Function("clearCacheDB")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, dbName := cacheDB.clientForIndex(index)
	if client == nil {
		log.Warn("Invalid cache database index", "index", index)
		return
	}

	if err := client.Do(ctx, client.B().Flushdb().Build()).Error(); err != nil {
		log.Er("Failed to clear cache database", err, "index", index, "dbName", dbName)
		return
	}

	log.Info("Successfully cleared cache database", "index", index, "dbName", dbName)
}

// FlushAllCaches empties every cache database. The migration seed command
// calls it after rebuilding tables so stale catalog listings disappear.
func (s *DB) FlushAllCaches() error {
	log := s.log.Function("FlushAllCaches")

	if !s.Cache.Enabled() {
		log.Info("Cache disabled, nothing to flush")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, index := range []int{GENERAL_CACHE_INDEX, USER_CACHE_INDEX, CATALOG_CACHE_INDEX} {
		client, dbName := s.Cache.clientForIndex(index)
		if err := client.Do(ctx, client.B().Flushdb().Build()).Error(); err != nil {
			return log.Err("Failed to flush cache database", err, "cache", dbName)
		}
		log.Info("Successfully flushed cache database", "cache", dbName)
	}

	return nil
}
