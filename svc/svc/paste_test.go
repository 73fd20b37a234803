package svc

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"freepaste/cfg"
	"freepaste/pkg/domain"
	"freepaste/svc/cache"
	"freepaste/svc/db"

	"github.com/pkg/errors"
)

func testCfg() *cfg.Cfg {
	return &cfg.Cfg{
		Port:           "0",
		Environment:    "test",
		LogLevel:       "error",
		StoreBackend:   cfg.BackendSQLite,
		MaxPasteSize:   domain.MaxContentBytes,
		LRUCacheSize:   100,
		ContextTimeout: 30 * time.Second,
		DBQueryTimeout: 10 * time.Second,
	}
}

func newTestService(t *testing.T) (*Paste, db.Store) {
	t.Helper()
	store, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	lru, err := cache.NewLRU(100)
	if err != nil {
		t.Fatal(err)
	}
	return NewPaste(store, lru, testCfg()), store
}

var (
	idPattern    = regexp.MustCompile(`^[a-zA-Z0-9]{10}$`)
	tokenPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

func TestCreateReturnsIDAndToken(t *testing.T) {
	p, _ := newTestService(t)
	paste, err := p.Create(context.Background(), "T", "hello")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !idPattern.MatchString(paste.ID) {
		t.Errorf("id %q has wrong format", paste.ID)
	}
	if !tokenPattern.MatchString(paste.OwnerToken) {
		t.Errorf("token %q has wrong format", paste.OwnerToken)
	}
	if paste.Title != "T" || paste.Content != "hello" {
		t.Errorf("fields not preserved: %+v", paste)
	}
	if paste.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestCreateDefaultsTitle(t *testing.T) {
	p, _ := newTestService(t)
	paste, err := p.Create(context.Background(), "", "content")
	if err != nil {
		t.Fatal(err)
	}
	if paste.Title != domain.DefaultTitle {
		t.Errorf("empty title should default to %q, got %q", domain.DefaultTitle, paste.Title)
	}
}

func TestCreateRejectsEmptyContent(t *testing.T) {
	p, _ := newTestService(t)
	for _, content := range []string{"", "   ", "\n\t  \r\n"} {
		_, err := p.Create(context.Background(), "title", content)
		if !errors.Is(err, domain.ErrContentRequired) {
			t.Errorf("content %q: expected ErrContentRequired, got %v", content, err)
		}
	}
}

func TestCreateSizeBoundary(t *testing.T) {
	p, _ := newTestService(t)
	ctx := context.Background()

	atLimit := strings.Repeat("a", domain.MaxContentBytes)
	if _, err := p.Create(ctx, "", atLimit); err != nil {
		t.Errorf("content of exactly %d bytes must succeed: %v", domain.MaxContentBytes, err)
	}
	overLimit := strings.Repeat("a", domain.MaxContentBytes+1)
	if _, err := p.Create(ctx, "", overLimit); !errors.Is(err, domain.ErrPasteTooLarge) {
		t.Errorf("content of %d bytes must fail with ErrPasteTooLarge, got %v", domain.MaxContentBytes+1, err)
	}
}

func TestCreateGetIsOwnerRoundtrip(t *testing.T) {
	p, _ := newTestService(t)
	ctx := context.Background()

	paste, err := p.Create(ctx, "my title", "my content")
	if err != nil {
		t.Fatal(err)
	}
	got, err := p.Get(ctx, paste.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Title != "my title" || got.Content != "my content" {
		t.Errorf("roundtrip mismatch: %+v", got)
	}

	if !p.IsOwner(ctx, paste.ID, paste.OwnerToken) {
		t.Error("correct token must be recognized as owner")
	}
	if p.IsOwner(ctx, paste.ID, "wrong") {
		t.Error("wrong token must not be owner")
	}
	if p.IsOwner(ctx, "nonexist00", paste.OwnerToken) {
		t.Error("absent paste must not report ownership")
	}
	if p.IsOwner(ctx, paste.ID, "") {
		t.Error("empty token must not be owner")
	}
}

func TestGetNotFound(t *testing.T) {
	p, _ := newTestService(t)
	_, err := p.Get(context.Background(), "missing000")
	if !errors.Is(err, domain.ErrPasteNotFound) {
		t.Errorf("expected ErrPasteNotFound, got %v", err)
	}
}

func TestRawContent(t *testing.T) {
	p, _ := newTestService(t)
	ctx := context.Background()
	paste, err := p.Create(ctx, "", "raw body\nwith lines")
	if err != nil {
		t.Fatal(err)
	}
	content, err := p.RawContent(ctx, paste.ID)
	if err != nil {
		t.Fatal(err)
	}
	if content != "raw body\nwith lines" {
		t.Errorf("raw content mismatch: %q", content)
	}
}

func TestEditAuthorized(t *testing.T) {
	p, store := newTestService(t)
	ctx := context.Background()

	paste, err := p.Create(ctx, "before", "original")
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Edit(ctx, paste.ID, "after", "updated", paste.OwnerToken); err != nil {
		t.Fatalf("authorized edit failed: %v", err)
	}

	stored, err := store.Get(ctx, paste.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Title != "after" || stored.Content != "updated" {
		t.Errorf("edit not applied: %+v", stored)
	}
	if stored.ID != paste.ID || stored.OwnerToken != paste.OwnerToken {
		t.Error("edit must not change id or owner_token")
	}
	if !stored.CreatedAt.Equal(paste.CreatedAt) {
		t.Errorf("edit must not change created_at: got %v want %v", stored.CreatedAt, paste.CreatedAt)
	}
}

func TestEditInvalidatesCache(t *testing.T) {
	p, _ := newTestService(t)
	ctx := context.Background()

	paste, err := p.Create(ctx, "t", "v1")
	if err != nil {
		t.Fatal(err)
	}
	// Warm the cache, then edit behind it.
	if _, err := p.Get(ctx, paste.ID); err != nil {
		t.Fatal(err)
	}
	if err := p.Edit(ctx, paste.ID, "t", "v2", paste.OwnerToken); err != nil {
		t.Fatal(err)
	}
	got, err := p.Get(ctx, paste.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "v2" {
		t.Errorf("stale cache after edit: got %q", got.Content)
	}
}

func TestEditRejections(t *testing.T) {
	p, store := newTestService(t)
	ctx := context.Background()

	paste, err := p.Create(ctx, "keep", "keep content")
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Edit(ctx, paste.ID, "x", "new", "deadbeef"); !errors.Is(err, domain.ErrNotOwner) {
		t.Errorf("wrong token: expected ErrNotOwner, got %v", err)
	}
	if err := p.Edit(ctx, paste.ID, "x", "new", ""); !errors.Is(err, domain.ErrTokenRequired) {
		t.Errorf("missing token: expected ErrTokenRequired, got %v", err)
	}
	if err := p.Edit(ctx, paste.ID, "x", "  ", paste.OwnerToken); !errors.Is(err, domain.ErrContentRequired) {
		t.Errorf("blank content: expected ErrContentRequired, got %v", err)
	}
	if err := p.Edit(ctx, "missing000", "x", "new", paste.OwnerToken); !errors.Is(err, domain.ErrPasteNotFound) {
		t.Errorf("absent paste: expected ErrPasteNotFound, got %v", err)
	}

	// None of the rejected edits may have modified the paste.
	stored, err := store.Get(ctx, paste.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Title != "keep" || stored.Content != "keep content" {
		t.Errorf("rejected edit modified the paste: %+v", stored)
	}
}

func TestListByOwner(t *testing.T) {
	p, _ := newTestService(t)
	ctx := context.Background()

	first, err := p.Create(ctx, "first", "1")
	if err != nil {
		t.Fatal(err)
	}
	secondPaste, err := p.Create(ctx, "second", "2")
	if err != nil {
		t.Fatal(err)
	}

	// Every create mints a fresh token, so each token lists exactly its own
	// paste and nothing else.
	got, err := p.ListByOwner(ctx, first.OwnerToken)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != first.ID {
		t.Errorf("expected only the first paste, got %+v", got)
	}

	got, err = p.ListByOwner(ctx, secondPaste.OwnerToken)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != secondPaste.ID {
		t.Errorf("expected only the second paste, got %+v", got)
	}

	if _, err := p.ListByOwner(ctx, ""); !errors.Is(err, domain.ErrTokenMissing) {
		t.Errorf("missing token: expected ErrTokenMissing, got %v", err)
	}
}

// collidingStore reports every insert as an id collision so the retry loop
// runs dry.
type collidingStore struct {
	db.Store
	attempts int
}

func (c *collidingStore) Insert(ctx context.Context, p *domain.Paste) error {
	c.attempts++
	return db.ErrDuplicateID
}

func TestCreateIDExhaustion(t *testing.T) {
	sqlStore, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlStore.Close() })
	lru, err := cache.NewLRU(10)
	if err != nil {
		t.Fatal(err)
	}
	colliding := &collidingStore{Store: sqlStore}
	p := NewPaste(colliding, lru, testCfg())

	_, err = p.Create(context.Background(), "", "content")
	if !errors.Is(err, domain.ErrIDGenerationFailed) {
		t.Fatalf("expected ErrIDGenerationFailed, got %v", err)
	}
	if colliding.attempts != 5 {
		t.Errorf("expected 5 insert attempts, got %d", colliding.attempts)
	}
}
