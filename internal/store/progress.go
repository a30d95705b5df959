package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type progressRepo struct {
	db  dbtx
	now func() time.Time
}

const progressColumns = `user_id, plan_id, module_id, score, level, completed, body, updated_at`

func (r *progressRepo) Upsert(ctx context.Context, p *ProgressRecord) error {
	p.UpdatedAt = r.now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO progress (`+progressColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, plan_id, module_id) DO UPDATE SET
		   score = excluded.score, level = excluded.level, completed = excluded.completed,
		   body = excluded.body, updated_at = excluded.updated_at`,
		p.UserID, p.PlanID, p.ModuleID, p.Score, p.Level, boolInt(p.Completed),
		string(p.Body), toMillis(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

func (r *progressRepo) Get(ctx context.Context, userID, planID, moduleID string) (*ProgressRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM progress WHERE user_id = ? AND plan_id = ? AND module_id = ?`,
		userID, planID, moduleID,
	)
	p, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return p, nil
}

func (r *progressRepo) ListByPlan(ctx context.Context, userID, planID string) ([]ProgressRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+progressColumns+` FROM progress WHERE user_id = ? AND plan_id = ? ORDER BY updated_at`,
		userID, planID,
	)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []ProgressRecord
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProgress(s rowScanner) (*ProgressRecord, error) {
	var (
		p                  ProgressRecord
		body               string
		completed, updated int64
	)
	if err := s.Scan(&p.UserID, &p.PlanID, &p.ModuleID, &p.Score, &p.Level, &completed, &body, &updated); err != nil {
		return nil, err
	}
	p.Completed = completed != 0
	p.Body = json.RawMessage(body)
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}
