package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

var schema = []string{`
	CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		handle TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		locale TEXT NOT NULL DEFAULT '',
		created_at {{TIMESTAMP}} NOT NULL
	)`, `
	CREATE TABLE IF NOT EXISTS favorites (
		user_id BIGINT NOT NULL,
		anime_id INTEGER NOT NULL,
		added_at {{TIMESTAMP}} NOT NULL,
		PRIMARY KEY (user_id, anime_id)
	)`, `
	CREATE TABLE IF NOT EXISTS watch_records (
		user_id BIGINT NOT NULL,
		anime_id INTEGER NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('plan_to_watch', 'watching', 'completed', 'dropped')),
		score INTEGER CHECK (score BETWEEN 0 AND 10),
		progress INTEGER NOT NULL DEFAULT 0 CHECK (progress >= 0),
		updated_at {{TIMESTAMP}} NOT NULL,
		PRIMARY KEY (user_id, anime_id)
	)`, `
	CREATE TABLE IF NOT EXISTS custom_lists (
		id {{SERIAL}},
		user_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		created_at {{TIMESTAMP}} NOT NULL,
		UNIQUE (user_id, name)
	)`, `
	CREATE TABLE IF NOT EXISTS custom_list_items (
		list_id BIGINT NOT NULL REFERENCES custom_lists(id) ON DELETE CASCADE,
		anime_id INTEGER NOT NULL,
		added_at {{TIMESTAMP}} NOT NULL,
		PRIMARY KEY (list_id, anime_id)
	)`, `
	CREATE TABLE IF NOT EXISTS achievements (
		user_id BIGINT NOT NULL,
		kind TEXT NOT NULL,
		granted_at {{TIMESTAMP}} NOT NULL,
		PRIMARY KEY (user_id, kind)
	)`, `
	CREATE TABLE IF NOT EXISTS anime_cache (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		title_english TEXT NOT NULL DEFAULT '',
		title_japanese TEXT NOT NULL DEFAULT '',
		synopsis TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		episodes INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT '',
		score {{REAL}} NOT NULL DEFAULT 0,
		rank INTEGER NOT NULL DEFAULT 0,
		popularity INTEGER NOT NULL DEFAULT 0,
		year INTEGER NOT NULL DEFAULT 0,
		season TEXT NOT NULL DEFAULT '',
		aired TEXT NOT NULL DEFAULT '',
		duration TEXT NOT NULL DEFAULT '',
		rating TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		trailer_url TEXT NOT NULL DEFAULT '',
		genres {{JSON}} NOT NULL,
		studios {{JSON}} NOT NULL,
		producers {{JSON}} NOT NULL,
		cached_at {{TIMESTAMP}} NOT NULL
	)`, `
	CREATE TABLE IF NOT EXISTS character_cache (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		name_kanji TEXT NOT NULL DEFAULT '',
		about TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		favorites INTEGER NOT NULL DEFAULT 0,
		nicknames {{JSON}} NOT NULL,
		anime {{JSON}} NOT NULL,
		voice_actors {{JSON}} NOT NULL,
		cached_at {{TIMESTAMP}} NOT NULL
	)`, `
	CREATE INDEX IF NOT EXISTS idx_watch_records_user_status ON watch_records (user_id, status)`,
}

func (s *Store) ddl(stmt string) string {
	r := strings.NewReplacer(
		"{{TIMESTAMP}}", "TIMESTAMP",
		"{{SERIAL}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{JSON}}", "TEXT",
		"{{REAL}}", "REAL",
	)
	if s.dialect == DialectPostgres {
		r = strings.NewReplacer(
			"{{TIMESTAMP}}", "TIMESTAMPTZ",
			"{{SERIAL}}", "BIGSERIAL PRIMARY KEY",
			"{{JSON}}", "JSONB",
			"{{REAL}}", "DOUBLE PRECISION",
		)
	}
	return r.Replace(stmt)
}

// InitSchema creates every table the store needs. It is safe to run on
// every start.
func (s *Store) InitSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, s.ddl(stmt)); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}
