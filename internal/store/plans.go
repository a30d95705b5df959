package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type planRepo struct {
	db  dbtx
	now func() time.Time
}

const planColumns = `id, user_id, title, goal, active, synthetic, body, created_at, updated_at`

func (r *planRepo) Create(ctx context.Context, p *PlanRecord) error {
	now := r.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO plans (`+planColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Title, p.Goal, boolInt(p.Active), boolInt(p.Synthetic),
		string(p.Body), toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (r *planRepo) Update(ctx context.Context, p *PlanRecord) error {
	p.UpdatedAt = r.now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE plans SET title = ?, active = ?, body = ?, updated_at = ? WHERE id = ?`,
		p.Title, boolInt(p.Active), string(p.Body), toMillis(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update plan %s: no such plan", p.ID)
	}
	return nil
}

func (r *planRepo) Get(ctx context.Context, id string) (*PlanRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

func (r *planRepo) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]PlanRecord, error) {
	q := `SELECT ` + planColumns + ` FROM plans WHERE user_id = ?`
	if activeOnly {
		q += ` AND active = 1`
	}
	q += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []PlanRecord
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *planRepo) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE plans SET active = ?, updated_at = ? WHERE id = ?`,
		boolInt(active), toMillis(r.now()), id,
	)
	if err != nil {
		return false, fmt.Errorf("set plan active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *planRepo) DeactivateAll(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE plans SET active = 0, updated_at = ? WHERE user_id = ? AND active = 1`,
		toMillis(r.now()), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("deactivate plans: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(s rowScanner) (*PlanRecord, error) {
	var (
		p                 PlanRecord
		body              string
		created, updated  int64
		active, synthetic int64
	)
	if err := s.Scan(&p.ID, &p.UserID, &p.Title, &p.Goal, &active, &synthetic, &body, &created, &updated); err != nil {
		return nil, err
	}
	p.Active = active != 0
	p.Synthetic = synthetic != 0
	p.Body = json.RawMessage(body)
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
