package db

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"freepaste/pkg/domain"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

var ErrCircuitOpen = errors.New("database circuit breaker open")

const (
	circuitClosed   = 0
	circuitOpen     = 1
	circuitHalfOpen = 2
	maxFailures     = 5
	cooldownSeconds = 30
)

const (
	defaultMaxOpenConns = 100
	defaultMaxIdleConns = 10
	defaultQueryTimeout = 5 * time.Second
)

// SQLite is the embedded relational adapter. Paste id uniqueness rides on
// the PRIMARY KEY constraint, so concurrent inserts of the same id can
// never both succeed.
type SQLite struct {
	db            *sql.DB
	failures      int32
	circuitState  int32
	circuitOpened int64
	queryTimeout  time.Duration
}

func (s *SQLite) DB() *sql.DB {
	return s.db
}

func NewSQLite(path string) (*SQLite, error) {
	return NewSQLiteWithConfig(path, defaultMaxOpenConns, defaultMaxIdleConns, defaultQueryTimeout)
}

func NewSQLiteWithConfig(path string, maxOpenConns, maxIdleConns int, queryTimeout time.Duration) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open db")
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping db")
	}
	s := &SQLite{
		db:           db,
		queryTimeout: queryTimeout,
	}
	if err := s.migrate(); err != nil {
		return nil, errors.Wrap(err, "migration failed")
	}
	return s, nil
}

func (s *SQLite) checkCircuit() error {
	state := atomic.LoadInt32(&s.circuitState)
	switch state {
	case circuitClosed:
		return nil
	case circuitOpen:
		opened := atomic.LoadInt64(&s.circuitOpened)
		if time.Now().Unix()-opened >= cooldownSeconds {
			if atomic.CompareAndSwapInt32(&s.circuitState, circuitOpen, circuitHalfOpen) {
				return nil
			}
		}
		return ErrCircuitOpen
	case circuitHalfOpen:
		return nil
	default:
		return nil
	}
}

func (s *SQLite) recordError(err error) {
	if err == nil {
		atomic.StoreInt32(&s.failures, 0)
		atomic.StoreInt32(&s.circuitState, circuitClosed)
		return
	}
	// Expected outcomes don't count against the breaker.
	if errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return
	}
	failures := atomic.AddInt32(&s.failures, 1)
	if atomic.LoadInt32(&s.circuitState) == circuitHalfOpen {
		atomic.StoreInt32(&s.circuitState, circuitOpen)
		atomic.StoreInt64(&s.circuitOpened, time.Now().Unix())
		atomic.StoreInt32(&s.failures, 0)
		return
	}
	if failures >= maxFailures && atomic.LoadInt32(&s.circuitState) == circuitClosed {
		atomic.StoreInt32(&s.circuitState, circuitOpen)
		atomic.StoreInt64(&s.circuitOpened, time.Now().Unix())
	}
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return errors.Wrap(err, "enable WAL mode")
	}
	_, err = s.db.Exec("PRAGMA busy_timeout = 5000")
	if err != nil {
		return errors.Wrap(err, "set busy timeout")
	}
	query := `
	CREATE TABLE IF NOT EXISTS pastes (
		id TEXT PRIMARY KEY,
		title TEXT COLLATE NOCASE,
		content TEXT NOT NULL,
		owner_token TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_owner_token ON pastes(owner_token);
	CREATE INDEX IF NOT EXISTS idx_created_at ON pastes(created_at);
	`
	_, err = s.db.Exec(query)
	return err
}

func isDuplicateErr(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func (s *SQLite) Insert(ctx context.Context, p *domain.Paste) error {
	if err := s.checkCircuit(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `
	INSERT INTO pastes (id, title, content, owner_token, created_at)
	VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(queryCtx, q,
		p.ID, p.Title, p.Content, p.OwnerToken, p.CreatedAt.UTC(),
	)
	if err != nil && isDuplicateErr(err) {
		return ErrDuplicateID
	}
	s.recordError(err)
	return errors.Wrap(err, "db insert")
}

func (s *SQLite) Get(ctx context.Context, id string) (*domain.Paste, error) {
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `
	SELECT id, title, content, owner_token, created_at
	FROM pastes WHERE id = ?
	`
	var p domain.Paste
	err := s.db.QueryRowContext(queryCtx, q, id).Scan(
		&p.ID, &p.Title, &p.Content, &p.OwnerToken, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrPasteNotFound
	}
	s.recordError(err)
	if err != nil {
		return nil, errors.Wrap(err, "db get")
	}
	return &p, nil
}

func (s *SQLite) UpdateContent(ctx context.Context, id, title, content string) error {
	if err := s.checkCircuit(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `UPDATE pastes SET title = ?, content = ? WHERE id = ?`
	result, err := s.db.ExecContext(queryCtx, q, title, content, id)
	s.recordError(err)
	if err != nil {
		return errors.Wrap(err, "db update")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "db update rows affected")
	}
	if affected == 0 {
		return domain.ErrPasteNotFound
	}
	return nil
}

func (s *SQLite) ListByOwner(ctx context.Context, token string) ([]domain.PasteSummary, error) {
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `
	SELECT id, title, created_at
	FROM pastes WHERE owner_token = ?
	ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(queryCtx, q, token)
	s.recordError(err)
	if err != nil {
		return nil, errors.Wrap(err, "db list by owner")
	}
	defer rows.Close()
	summaries := []domain.PasteSummary{}
	for rows.Next() {
		var sum domain.PasteSummary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "db scan summary")
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "db iterate summaries")
	}
	return summaries, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
