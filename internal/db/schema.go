package db

// postgresSchema creates the item and lesson tables when missing.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS lessons (
	id         TEXT PRIMARY KEY,
	scope_id   TEXT NOT NULL,
	ordinal    INTEGER NOT NULL DEFAULT 0,
	title      TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS quiz_items (
	id             TEXT PRIMARY KEY,
	scope_id       TEXT NOT NULL,
	lesson_id      TEXT NOT NULL DEFAULT '',
	lesson_ordinal INTEGER NOT NULL DEFAULT 0,
	language       TEXT NOT NULL DEFAULT '',
	text           TEXT NOT NULL,
	options        JSONB NOT NULL DEFAULT '[]'::jsonb,
	correct_index  INTEGER NOT NULL DEFAULT 0,
	difficulty     TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL DEFAULT '',
	type           TEXT NOT NULL DEFAULT '',
	tags           JSONB NOT NULL DEFAULT '[]'::jsonb,
	active         BOOLEAN NOT NULL DEFAULT TRUE,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
);

CREATE INDEX IF NOT EXISTS quiz_items_updated_at_idx ON quiz_items (updated_at, id);
CREATE INDEX IF NOT EXISTS quiz_items_scope_idx ON quiz_items (scope_id);
`

// sqliteSchema mirrors postgresSchema. updated_at holds Unix nanoseconds.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS lessons (
	id         TEXT PRIMARY KEY,
	scope_id   TEXT NOT NULL,
	ordinal    INTEGER NOT NULL DEFAULT 0,
	title      TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS quiz_items (
	id             TEXT PRIMARY KEY,
	scope_id       TEXT NOT NULL,
	lesson_id      TEXT NOT NULL DEFAULT '',
	lesson_ordinal INTEGER NOT NULL DEFAULT 0,
	language       TEXT NOT NULL DEFAULT '',
	text           TEXT NOT NULL,
	options        TEXT NOT NULL DEFAULT '[]',
	correct_index  INTEGER NOT NULL DEFAULT 0,
	difficulty     TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL DEFAULT '',
	type           TEXT NOT NULL DEFAULT '',
	tags           TEXT NOT NULL DEFAULT '[]',
	active         INTEGER NOT NULL DEFAULT 1,
	updated_at     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS quiz_items_updated_at_idx ON quiz_items (updated_at, id);
CREATE INDEX IF NOT EXISTS quiz_items_scope_idx ON quiz_items (scope_id);
`

const itemColumns = `id, scope_id, lesson_id, lesson_ordinal, language, text, options,
	correct_index, difficulty, category, type, tags, active, updated_at`
