package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type feedbackRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *feedbackRepo) Append(ctx context.Context, f *FeedbackRecord) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feedback (id, user_id, plan_id, module_id, text, rating, sentiment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.PlanID, f.ModuleID, f.Text, f.Rating, f.Sentiment, toMillis(f.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (r *feedbackRepo) ListByPlan(ctx context.Context, userID, planID string, limit int) ([]FeedbackRecord, error) {
	q := `SELECT id, user_id, plan_id, module_id, text, rating, sentiment, created_at
	      FROM feedback WHERE user_id = ? AND plan_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []any{userID, planID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []FeedbackRecord
	for rows.Next() {
		var (
			f       FeedbackRecord
			created int64
		)
		if err := rows.Scan(&f.ID, &f.UserID, &f.PlanID, &f.ModuleID, &f.Text, &f.Rating, &f.Sentiment, &created); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		f.CreatedAt = fromMillis(created)
		out = append(out, f)
	}
	return out, rows.Err()
}
