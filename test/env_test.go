package test

import (
	"context"
	"testing"

	"freepaste/cfg"
)

func TestConfigDefaults(t *testing.T) {
	c := createTestConfig()

	if c.StoreBackend != cfg.BackendSQLite {
		t.Errorf("backend = %q", c.StoreBackend)
	}
	if c.MaxPasteSize <= 0 {
		t.Error("max paste size must be positive")
	}
	if c.LRUCacheSize <= 0 {
		t.Error("cache size must be positive")
	}
	if err := cfg.Validate(c); err != nil {
		t.Errorf("test config must validate: %v", err)
	}
}

func TestServiceAgainstClosedStore(t *testing.T) {
	c := createTestConfig()
	sqlDB := createTestDB(t, c)
	lru := createTestLRU(t, 10)
	pasteSvc := newServiceForStore(t, sqlDB, lru, c)

	ctx := context.Background()
	paste, err := pasteSvc.Create(ctx, "", "before close")
	if err != nil {
		t.Fatal(err)
	}

	lru.Delete(paste.ID)
	sqlDB.Close()

	if _, err := pasteSvc.Create(ctx, "", "after close"); err == nil {
		t.Error("expected error creating against a closed store")
	}
	if _, err := pasteSvc.Get(ctx, paste.ID); err == nil {
		t.Error("expected error reading from a closed store")
	}
}

func TestMaxPasteSizeOverride(t *testing.T) {
	c := createTestConfig()
	c.MaxPasteSize = 16

	sqlDB := createTestDB(t, c)
	t.Cleanup(func() { sqlDB.Close() })
	lru := createTestLRU(t, 10)
	pasteSvc := newServiceForStore(t, sqlDB, lru, c)

	ctx := context.Background()
	if _, err := pasteSvc.Create(ctx, "", "this content is longer than sixteen bytes"); err == nil {
		t.Error("expected oversize rejection with lowered limit")
	}
	if _, err := pasteSvc.Create(ctx, "", "short"); err != nil {
		t.Errorf("small paste must pass: %v", err)
	}
}
