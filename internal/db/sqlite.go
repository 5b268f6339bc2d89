package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/moldovancsaba/amanoba-sub006/internal/itemstore"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

// SQLite is an item store backed by a local SQLite file.
type SQLite struct {
	conn *sql.DB
	now  func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer at a time keeps updated_at bumps serialized.
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return &SQLite{conn: conn, now: time.Now}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// SetClock replaces the time source used to stamp updates.
func (s *SQLite) SetClock(now func() time.Time) {
	s.now = now
}

// ListAll returns the items matching filter ordered by updated_at, then id.
func (s *SQLite) ListAll(ctx context.Context, filter itemstore.Filter) ([]types.Item, error) {
	where, args := listWhere(filter.ScopeID, filter.ActiveOnly, question, 1)
	query := "SELECT " + itemColumns + " FROM quiz_items" + where + " ORDER BY updated_at ASC, id ASC"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sqliteError("failed to list items", err)
	}
	defer rows.Close()

	var items []types.Item
	for rows.Next() {
		item, err := scanSQLiteItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteError("failed to iterate items", err)
	}
	return items, nil
}

// GetByID returns one item or an *itemstore.NotFoundError.
func (s *SQLite) GetByID(ctx context.Context, id string) (*types.Item, error) {
	return s.getByID(ctx, s.conn, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLite) getByID(ctx context.Context, q queryer, id string) (*types.Item, error) {
	item, err := scanSQLiteItem(q.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM quiz_items WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &itemstore.NotFoundError{ItemID: id}
		}
		return nil, sqliteError("failed to get item", err)
	}
	return item, nil
}

// ApplyPatch updates the patched columns in a transaction and stamps
// updated_at strictly after its previous value.
func (s *SQLite) ApplyPatch(ctx context.Context, id string, patch types.ItemPatch) (*types.Item, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, sqliteError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	var prev int64
	if err := tx.QueryRowContext(ctx, "SELECT updated_at FROM quiz_items WHERE id = ?", id).Scan(&prev); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &itemstore.NotFoundError{ItemID: id}
		}
		return nil, sqliteError("failed to read item timestamp", err)
	}

	stamp := s.now().UnixNano()
	if stamp <= prev {
		stamp = prev + 1
	}

	sets, args, err := patchAssignments(patch, 1, question, "")
	if err != nil {
		return nil, err
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, stamp, id)

	query := fmt.Sprintf("UPDATE quiz_items SET %s WHERE id = ?", strings.Join(sets, ", "))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, sqliteError("failed to patch item", err)
	}

	item, err := s.getByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, sqliteError("failed to commit patch", err)
	}
	return item, nil
}

// UpsertItem inserts or replaces an item. A zero UpdatedAt is stamped with the clock.
func (s *SQLite) UpsertItem(ctx context.Context, item types.Item) error {
	options, tags, err := encodeArrays(item)
	if err != nil {
		return err
	}
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO quiz_items (`+itemColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.ScopeID, item.LessonID, item.LessonOrdinal, item.Language, item.Text, options,
		item.CorrectIndex, item.Difficulty, item.Category, item.Type, tags, item.Active, updatedAt.UnixNano(),
	)
	if err != nil {
		return sqliteError("failed to upsert item", err)
	}
	return nil
}

// UpsertLesson inserts or replaces a lesson.
func (s *SQLite) UpsertLesson(ctx context.Context, lesson Lesson) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO lessons (id, scope_id, ordinal, title, body) VALUES (?, ?, ?, ?, ?)`,
		lesson.ID, lesson.ScopeID, lesson.Ordinal, lesson.Title, lesson.Body,
	)
	if err != nil {
		return sqliteError("failed to upsert lesson", err)
	}
	return nil
}

// LessonContext returns a lesson's title and body. Unknown lessons yield empty strings.
func (s *SQLite) LessonContext(ctx context.Context, lessonID string) (string, string, error) {
	var title, body string
	err := s.conn.QueryRowContext(ctx, `SELECT title, body FROM lessons WHERE id = ?`, lessonID).Scan(&title, &body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", nil
		}
		return "", "", sqliteError("failed to get lesson", err)
	}
	return title, body, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteItem(row scanner) (*types.Item, error) {
	var item types.Item
	var optionsJSON, tagsJSON string
	var updatedAt int64
	err := row.Scan(&item.ID, &item.ScopeID, &item.LessonID, &item.LessonOrdinal, &item.Language,
		&item.Text, &optionsJSON, &item.CorrectIndex, &item.Difficulty, &item.Category, &item.Type,
		&tagsJSON, &item.Active, &updatedAt)
	if err != nil {
		return nil, err
	}
	if item.Options, err = decodeStrings([]byte(optionsJSON)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	if item.Tags, err = decodeStrings([]byte(tagsJSON)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	item.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &item, nil
}

// sqliteError marks busy and locked databases as transient.
func sqliteError(message string, err error) error {
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return &itemstore.TransientError{Message: message, Cause: err}
		}
	}
	return fmt.Errorf("%s: %w", message, err)
}
