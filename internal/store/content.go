package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type contentRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *contentRepo) Put(ctx context.Context, c *ContentRecord) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO module_contents (plan_id, module_id, kind, body, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (plan_id, module_id, kind) DO UPDATE SET body = excluded.body, created_at = excluded.created_at`,
		c.PlanID, c.ModuleID, c.Kind, string(c.Body), toMillis(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put module content: %w", err)
	}
	return nil
}

func (r *contentRepo) List(ctx context.Context, planID, moduleID string) ([]ContentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT plan_id, module_id, kind, body, created_at FROM module_contents
		 WHERE plan_id = ? AND module_id = ? ORDER BY created_at, kind`,
		planID, moduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list module content: %w", err)
	}
	defer rows.Close()

	var out []ContentRecord
	for rows.Next() {
		var (
			c       ContentRecord
			body    string
			created int64
		)
		if err := rows.Scan(&c.PlanID, &c.ModuleID, &c.Kind, &body, &created); err != nil {
			return nil, fmt.Errorf("scan module content: %w", err)
		}
		c.Body = json.RawMessage(body)
		c.CreatedAt = fromMillis(created)
		out = append(out, c)
	}
	return out, rows.Err()
}
