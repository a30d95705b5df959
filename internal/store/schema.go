package store

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS plans (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		title      TEXT NOT NULL,
		goal       TEXT NOT NULL,
		active     INTEGER NOT NULL DEFAULT 1,
		synthetic  INTEGER NOT NULL DEFAULT 0,
		body       TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS plans_user_active ON plans (user_id, active)`,
	`CREATE TABLE IF NOT EXISTS module_contents (
		plan_id    TEXT NOT NULL REFERENCES plans (id) ON DELETE CASCADE,
		module_id  TEXT NOT NULL,
		kind       TEXT NOT NULL,
		body       TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (plan_id, module_id, kind)
	)`,
	`CREATE TABLE IF NOT EXISTS progress (
		user_id    TEXT NOT NULL,
		plan_id    TEXT NOT NULL REFERENCES plans (id) ON DELETE CASCADE,
		module_id  TEXT NOT NULL,
		score      INTEGER NOT NULL,
		level      INTEGER NOT NULL,
		completed  INTEGER NOT NULL,
		body       TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, plan_id, module_id)
	)`,
	`CREATE TABLE IF NOT EXISTS feedback (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		plan_id    TEXT NOT NULL,
		module_id  TEXT NOT NULL DEFAULT '',
		text       TEXT NOT NULL,
		rating     INTEGER NOT NULL DEFAULT 0,
		sentiment  INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS feedback_plan ON feedback (user_id, plan_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS llm_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL,
		timestamp     INTEGER NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		latency_ms    INTEGER NOT NULL,
		success       INTEGER NOT NULL,
		failure       TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS counters (
		name  TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
