package test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"freepaste/cfg"
	"freepaste/pkg/domain"
	"freepaste/svc/cache"
	"freepaste/svc/db"
	"freepaste/svc/svc"

	"github.com/joho/godotenv"
)

var envLoadOnce sync.Once

func loadTestEnv() {
	envLoadOnce.Do(func() {
		paths := []string{
			".env.test",
			"../.env.test",
		}
		for _, p := range paths {
			if absPath, err := filepath.Abs(p); err == nil {
				if _, err := os.Stat(absPath); err == nil {
					if err := godotenv.Load(absPath); err == nil {
						return
					}
				}
			}
		}
	})
}

func createTestConfig() *cfg.Cfg {
	loadTestEnv()

	c, err := cfg.Load()
	if err != nil {
		return &cfg.Cfg{
			Port:           "0",
			Environment:    "test",
			LogLevel:       "error",
			StoreBackend:   cfg.BackendSQLite,
			DatabasePath:   "freepaste_test.db",
			LRUCacheSize:   1000,
			MaxPasteSize:   domain.MaxContentBytes,
			ContextTimeout: 30 * time.Second,
			DBQueryTimeout: 10 * time.Second,
		}
	}

	c.Port = "0"
	c.Environment = "test"
	c.LogLevel = "error"
	c.StoreBackend = cfg.BackendSQLite

	return c
}

func createTestDB(t *testing.T, c *cfg.Cfg) *db.SQLite {
	path := filepath.Join(t.TempDir(), "freepaste_test.db")

	maxOpenConns := c.DBMaxOpenConns
	if maxOpenConns == 0 {
		maxOpenConns = 25
	}
	maxIdleConns := c.DBMaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	queryTimeout := c.DBQueryTimeout
	if queryTimeout == 0 {
		queryTimeout = 10 * time.Second
	}

	sqlDB, err := db.NewSQLiteWithConfig(path, maxOpenConns, maxIdleConns, queryTimeout)
	if err != nil {
		t.Fatal(err)
	}
	return sqlDB
}

func createTestLRU(t *testing.T, size int) *cache.LRU {
	lru, err := cache.NewLRU(size)
	if err != nil {
		t.Fatal(err)
	}
	return lru
}

func newServiceForStore(t *testing.T, store db.Store, lru *cache.LRU, c *cfg.Cfg) *svc.Paste {
	t.Helper()
	return svc.NewPaste(store, lru, c)
}

func createTestService(t *testing.T) (*svc.Paste, db.Store) {
	c := createTestConfig()
	sqlDB := createTestDB(t, c)
	t.Cleanup(func() { sqlDB.Close() })
	lru := createTestLRU(t, c.LRUCacheSize)
	return svc.NewPaste(sqlDB, lru, c), sqlDB
}
