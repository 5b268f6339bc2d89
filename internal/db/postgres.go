// Package db provides the SQL-backed item stores: PostgreSQL for the shared
// corpus and SQLite for local sweeps.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moldovancsaba/amanoba-sub006/internal/itemstore"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ListAll returns the items matching filter ordered by updated_at, then id.
func (db *DB) ListAll(ctx context.Context, filter itemstore.Filter) ([]types.Item, error) {
	where, args := listWhere(filter.ScopeID, filter.ActiveOnly, dollar, true)
	query := "SELECT " + itemColumns + " FROM quiz_items" + where + " ORDER BY updated_at ASC, id ASC"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, pgError("failed to list items", err)
	}
	defer rows.Close()

	var items []types.Item
	for rows.Next() {
		item, err := scanPgItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, pgError("failed to iterate items", err)
	}
	return items, nil
}

// GetByID returns one item or an *itemstore.NotFoundError.
func (db *DB) GetByID(ctx context.Context, id string) (*types.Item, error) {
	row := db.pool.QueryRow(ctx, "SELECT "+itemColumns+" FROM quiz_items WHERE id = $1", id)
	item, err := scanPgItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &itemstore.NotFoundError{ItemID: id}
		}
		return nil, pgError("failed to get item", err)
	}
	return item, nil
}

// ApplyPatch updates the patched columns and bumps updated_at past its previous value.
func (db *DB) ApplyPatch(ctx context.Context, id string, patch types.ItemPatch) (*types.Item, error) {
	sets, args, err := patchAssignments(patch, 1, dollar, "::jsonb")
	if err != nil {
		return nil, err
	}
	sets = append(sets, "updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE quiz_items SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), itemColumns)

	item, err := scanPgItem(db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &itemstore.NotFoundError{ItemID: id}
		}
		return nil, pgError("failed to patch item", err)
	}
	return item, nil
}

// UpsertItem inserts or replaces an item. A zero UpdatedAt is stamped by the database.
func (db *DB) UpsertItem(ctx context.Context, item types.Item) error {
	options, tags, err := encodeArrays(item)
	if err != nil {
		return err
	}
	var updatedAt any
	if !item.UpdatedAt.IsZero() {
		updatedAt = item.UpdatedAt
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO quiz_items (`+itemColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10, $11, $12::jsonb, $13, COALESCE($14, clock_timestamp()))
		 ON CONFLICT (id) DO UPDATE SET
			scope_id = EXCLUDED.scope_id, lesson_id = EXCLUDED.lesson_id,
			lesson_ordinal = EXCLUDED.lesson_ordinal, language = EXCLUDED.language,
			text = EXCLUDED.text, options = EXCLUDED.options, correct_index = EXCLUDED.correct_index,
			difficulty = EXCLUDED.difficulty, category = EXCLUDED.category, type = EXCLUDED.type,
			tags = EXCLUDED.tags, active = EXCLUDED.active, updated_at = EXCLUDED.updated_at`,
		item.ID, item.ScopeID, item.LessonID, item.LessonOrdinal, item.Language, item.Text, options,
		item.CorrectIndex, item.Difficulty, item.Category, item.Type, tags, item.Active, updatedAt,
	)
	if err != nil {
		return pgError("failed to upsert item", err)
	}
	return nil
}

// UpsertLesson inserts or replaces a lesson.
func (db *DB) UpsertLesson(ctx context.Context, lesson Lesson) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO lessons (id, scope_id, ordinal, title, body) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET scope_id = $2, ordinal = $3, title = $4, body = $5`,
		lesson.ID, lesson.ScopeID, lesson.Ordinal, lesson.Title, lesson.Body,
	)
	if err != nil {
		return pgError("failed to upsert lesson", err)
	}
	return nil
}

// LessonContext returns a lesson's title and body. Unknown lessons yield empty strings.
func (db *DB) LessonContext(ctx context.Context, lessonID string) (string, string, error) {
	var title, body string
	err := db.pool.QueryRow(ctx, `SELECT title, body FROM lessons WHERE id = $1`, lessonID).Scan(&title, &body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", nil
		}
		return "", "", pgError("failed to get lesson", err)
	}
	return title, body, nil
}

func scanPgItem(row pgx.Row) (*types.Item, error) {
	var item types.Item
	var optionsJSON, tagsJSON []byte
	var updatedAt time.Time
	err := row.Scan(&item.ID, &item.ScopeID, &item.LessonID, &item.LessonOrdinal, &item.Language,
		&item.Text, &optionsJSON, &item.CorrectIndex, &item.Difficulty, &item.Category, &item.Type,
		&tagsJSON, &item.Active, &updatedAt)
	if err != nil {
		return nil, err
	}
	if item.Options, err = decodeStrings(optionsJSON); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	if item.Tags, err = decodeStrings(tagsJSON); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	item.UpdatedAt = updatedAt.UTC()
	return &item, nil
}

// pgError marks connection-level failures as transient so callers retry them.
func pgError(message string, err error) error {
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return &itemstore.TransientError{Message: message, Cause: err}
	}
	return fmt.Errorf("%s: %w", message, err)
}
