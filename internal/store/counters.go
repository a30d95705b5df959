package store

import (
	"context"
	"database/sql"
	"fmt"
)

const llmEventCounter = "llm_events"

// counters hands out monotonic numbers per name. Values live in their own
// table, so numbering continues after rows are deleted.
type counters struct {
	db *sql.DB
}

// next increments name and returns the new value, starting at 1.
func (c counters) next(ctx context.Context, name string) (int64, error) {
	var v int64
	err := c.db.QueryRowContext(ctx,
		`INSERT INTO counters (name, value) VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET value = value + 1
		 RETURNING value`, name).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", name, err)
	}
	return v, nil
}
