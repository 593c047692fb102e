// Package datastore is the data collaborator behind the domain tools: accounts,
// facilities and notes kept in SQLite.
//
// Accounts and facilities are stored as JSON documents keyed by id so their
// field values round-trip verbatim. Notes are stored as rows; saving a note is
// a single INSERT.
//
// Use NewSQLiteStore(":memory:") in tests.
package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/petasbytes/overview-agent/internal/records"
)

// ErrNotFound is returned when an account or facility id is unknown.
var ErrNotFound = errors.New("not found")

// Store is what the domain tools need from the data collaborator.
type Store interface {
	GetAccount(ctx context.Context, id string) (records.Account, error)
	GetFacility(ctx context.Context, id string) (records.Facility, error)
	ListFacilities(ctx context.Context, accountID string) ([]records.Facility, error)
	SaveNote(ctx context.Context, userID, content string) (records.Note, error)
	ListNotes(ctx context.Context, q records.NoteQuery) ([]records.Note, error)
}

// Clock returns the current time. Injected so note timestamps are testable.
type Clock func() time.Time

type Option func(*SQLiteStore)

func WithClock(c Clock) Option {
	return func(s *SQLiteStore) {
		if c != nil {
			s.now = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *SQLiteStore) {
		if l != nil {
			s.logger = l.Named("datastore")
		}
	}
}

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db     *sql.DB
	now    Clock
	logger *zap.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. Parent directories are created for file-backed databases.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection: an in-memory database exists per connection, and note
	// ids are allocated inside a write transaction.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}

	s.db = db
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s.logger.Info("datastore initialized", zap.String("path", path))
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS facilities (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			data TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_facilities_account ON facilities(account_id);

		CREATE TABLE IF NOT EXISTS notes (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			note_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_notes_user_note ON notes(user_id, note_id);
		CREATE INDEX IF NOT EXISTS idx_notes_user_created ON notes(user_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PutAccount inserts or replaces an account document.
func (s *SQLiteStore) PutAccount(ctx context.Context, a records.Account) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding account: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, data) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, a.AccountID, string(data))
	return err
}

// PutFacility inserts or replaces a facility document.
func (s *SQLiteStore) PutFacility(ctx context.Context, f records.Facility) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding facility: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO facilities (id, account_id, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET account_id = excluded.account_id, data = excluded.data
	`, f.ID, f.AccountID, string(data))
	return err
}

func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (records.Account, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM accounts WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return records.Account{}, ErrNotFound
	}
	if err != nil {
		return records.Account{}, err
	}
	var a records.Account
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return records.Account{}, fmt.Errorf("decoding account %s: %w", id, err)
	}
	return a, nil
}

func (s *SQLiteStore) GetFacility(ctx context.Context, id string) (records.Facility, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM facilities WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return records.Facility{}, ErrNotFound
	}
	if err != nil {
		return records.Facility{}, err
	}
	var f records.Facility
	if err := json.Unmarshal([]byte(data), &f); err != nil {
		return records.Facility{}, fmt.Errorf("decoding facility %s: %w", id, err)
	}
	return f, nil
}

// ListFacilities returns the facilities of an account ordered by id.
func (s *SQLiteStore) ListFacilities(ctx context.Context, accountID string) ([]records.Facility, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM facilities WHERE account_id = ? ORDER BY id ASC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []records.Facility
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var f records.Facility
		if err := json.Unmarshal([]byte(data), &f); err != nil {
			return nil, fmt.Errorf("decoding facility: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// SaveNote appends a note for userID. Note ids are sequential per user
// (N-000001, N-000002, ...).
func (s *SQLiteStore) SaveNote(ctx context.Context, userID, content string) (records.Note, error) {
	return s.insertNote(ctx, userID, content, s.now().UTC())
}

func (s *SQLiteStore) insertNote(ctx context.Context, userID, content string, at time.Time) (records.Note, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return records.Note{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes WHERE user_id = ?`, userID).Scan(&count); err != nil {
		return records.Note{}, err
	}

	note := records.Note{
		NoteID:    fmt.Sprintf("N-%06d", count+1),
		UserID:    userID,
		Content:   content,
		CreatedAt: at,
		UpdatedAt: at,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO notes (note_id, user_id, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, note.NoteID, note.UserID, note.Content, at.UnixNano(), at.UnixNano())
	if err != nil {
		return records.Note{}, err
	}
	if err := tx.Commit(); err != nil {
		return records.Note{}, err
	}

	s.logger.Debug("note saved", zap.String("user_id", userID), zap.String("note_id", note.NoteID))
	return note, nil
}

// ListNotes filters by user and optional day, orders by creation time, then
// truncates to the limit.
func (s *SQLiteStore) ListNotes(ctx context.Context, q records.NoteQuery) ([]records.Note, error) {
	query := `SELECT note_id, user_id, content, created_at, updated_at FROM notes WHERE user_id = ?`
	args := []any{q.UserID}

	if q.Date != nil {
		start := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, time.UTC)
		query += ` AND created_at >= ? AND created_at < ?`
		args = append(args, start.UnixNano(), start.AddDate(0, 0, 1).UnixNano())
	}

	if q.Order == records.OrderAsc {
		query += ` ORDER BY created_at ASC, seq ASC`
	} else {
		query += ` ORDER BY created_at DESC, seq DESC`
	}

	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []records.Note{}
	for rows.Next() {
		var n records.Note
		var created, updated int64
		if err := rows.Scan(&n.NoteID, &n.UserID, &n.Content, &created, &updated); err != nil {
			return nil, err
		}
		n.CreatedAt = time.Unix(0, created).UTC()
		n.UpdatedAt = time.Unix(0, updated).UTC()
		out = append(out, n)
	}
	return out, rows.Err()
}
