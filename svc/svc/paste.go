package svc

import (
	"context"
	"strings"
	"time"

	"freepaste/cfg"
	"freepaste/metrics"
	"freepaste/pkg/domain"
	"freepaste/svc/cache"
	"freepaste/svc/db"
	"freepaste/svc/util"

	"github.com/pkg/errors"
)

// maxInsertAttempts bounds the id collision retry loop. Collisions surface
// at insert time through db.ErrDuplicateID; the loop corrects for them but
// is not itself a uniqueness mechanism, the store constraint is.
const maxInsertAttempts = 5

// Paste carries the business rules once, against the db.Store interface,
// so both storage backends behave identically.
type Paste struct {
	store db.Store
	lru   *cache.LRU
	cfg   *cfg.Cfg
}

func NewPaste(store db.Store, lru *cache.LRU, c *cfg.Cfg) *Paste {
	if store == nil || lru == nil || c == nil {
		panic("paste service: nil dependency (store, lru, or cfg)")
	}
	return &Paste{store: store, lru: lru, cfg: c}
}

func (p *Paste) validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return domain.ErrContentRequired
	}
	if int64(len(content)) > p.cfg.MaxPasteSize {
		return domain.ErrPasteTooLarge
	}
	return nil
}

func normalizeTitle(title string) string {
	if title == "" {
		return domain.DefaultTitle
	}
	return title
}

// Create validates the submission, mints the owner token, and inserts with
// a fresh id, retrying only on duplicate-id collisions. This is the single
// place a token is ever minted.
func (p *Paste) Create(ctx context.Context, title, content string) (*domain.Paste, error) {
	if err := p.validateContent(content); err != nil {
		return nil, err
	}
	token, err := util.GenToken()
	if err != nil {
		return nil, errors.Wrap(err, "gen token")
	}
	paste := &domain.Paste{
		Title:      normalizeTitle(title),
		Content:    content,
		OwnerToken: token,
		CreatedAt:  time.Now().UTC(),
	}
	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		id, err := util.GenID()
		if err != nil {
			return nil, errors.Wrap(err, "gen id")
		}
		paste.ID = id
		err = p.store.Insert(ctx, paste)
		if err == nil {
			p.lru.Set(paste)
			metrics.PasteCreated.Inc()
			return paste, nil
		}
		if errors.Is(err, db.ErrDuplicateID) {
			metrics.IDCollisions.Inc()
			util.Warn().Int("attempt", attempt+1).Str("id", id).Msg("paste id collision")
			continue
		}
		return nil, errors.Wrap(err, "insert paste")
	}
	return nil, domain.ErrIDGenerationFailed
}

// Get returns the paste, read through the LRU cache.
func (p *Paste) Get(ctx context.Context, id string) (*domain.Paste, error) {
	if paste := p.lru.Get(id); paste != nil {
		metrics.CacheHits.Inc()
		metrics.PasteRetrieved.Inc()
		return paste, nil
	}
	metrics.CacheMisses.Inc()
	paste, err := p.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPasteNotFound) {
			return nil, domain.ErrPasteNotFound
		}
		return nil, errors.Wrap(err, "get paste")
	}
	p.lru.Set(paste)
	metrics.PasteRetrieved.Inc()
	return paste, nil
}

// RawContent returns just the paste body.
func (p *Paste) RawContent(ctx context.Context, id string) (string, error) {
	paste, err := p.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return paste.Content, nil
}

// IsOwner reports whether token holds the paste. Absent paste, empty token
// and storage failures all answer false; a negative ownership answer is
// always safe.
func (p *Paste) IsOwner(ctx context.Context, id, token string) bool {
	if token == "" {
		return false
	}
	paste, err := p.Get(ctx, id)
	if err != nil {
		return false
	}
	return util.TokenMatch(token, paste.OwnerToken)
}

// Edit overwrites title and content after the token proves ownership. ID,
// owner token and creation time are never touched.
func (p *Paste) Edit(ctx context.Context, id, title, content, token string) error {
	if err := p.validateContent(content); err != nil {
		return err
	}
	if token == "" {
		return domain.ErrTokenRequired
	}
	paste, err := p.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPasteNotFound) {
			return domain.ErrPasteNotFound
		}
		return errors.Wrap(err, "get paste for edit")
	}
	if !util.TokenMatch(token, paste.OwnerToken) {
		return domain.ErrNotOwner
	}
	if err := p.store.UpdateContent(ctx, id, normalizeTitle(title), content); err != nil {
		if errors.Is(err, domain.ErrPasteNotFound) {
			return domain.ErrPasteNotFound
		}
		return errors.Wrap(err, "update paste")
	}
	p.lru.Delete(id)
	metrics.PasteEdited.Inc()
	return nil
}

// ListByOwner returns summaries of every paste minted with token, newest
// first.
func (p *Paste) ListByOwner(ctx context.Context, token string) ([]domain.PasteSummary, error) {
	if token == "" {
		return nil, domain.ErrTokenMissing
	}
	summaries, err := p.store.ListByOwner(ctx, token)
	if err != nil {
		return nil, errors.Wrap(err, "list by owner")
	}
	return summaries, nil
}
