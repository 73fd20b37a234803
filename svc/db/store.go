package db

import (
	"context"

	"freepaste/pkg/domain"

	"github.com/pkg/errors"
)

// ErrDuplicateID signals that an insert lost the id to an existing paste.
// The service retries only on this error; everything else is fatal for the
// request. Both adapters must enforce uniqueness atomically at the storage
// layer, never by a check-then-insert pre-flight.
var ErrDuplicateID = errors.New("paste id already exists")

// Store is the persistence capability set the paste service is written
// against. SQLite and Redis implement it with identical caller-visible
// behavior.
type Store interface {
	// Insert stores a new paste. Returns ErrDuplicateID when the id is
	// already taken.
	Insert(ctx context.Context, p *domain.Paste) error

	// Get returns the paste or domain.ErrPasteNotFound.
	Get(ctx context.Context, id string) (*domain.Paste, error)

	// UpdateContent overwrites title and content only. Returns
	// domain.ErrPasteNotFound when the paste is absent.
	UpdateContent(ctx context.Context, id, title, content string) error

	// ListByOwner returns summaries of every paste holding the token,
	// newest first.
	ListByOwner(ctx context.Context, token string) ([]domain.PasteSummary, error)

	Ping(ctx context.Context) error
	Close() error
}
