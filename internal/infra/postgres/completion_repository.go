package postgres

import (
	"context"
	"fmt"
	"time"

	"quiz-engine/internal/domain"
)

type CompletionRepository struct {
	db DBTX
}

func NewCompletionRepository(db DBTX) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// Record appends a completion. A quiz deleted in the meantime surfaces as domain.ErrQuizNotFound.
func (r *CompletionRepository) Record(ctx context.Context, email string, quizID int64, at time.Time) (domain.Completion, error) {
	c := domain.Completion{QuizID: quizID, UserEmail: email, CompletedAt: at}
	err := r.db.QueryRow(ctx,
		`INSERT INTO completions (user_email, quiz_id, completed_at)
		 SELECT $1::text, id, $3::timestamptz FROM quizzes WHERE id = $2
		 RETURNING id`,
		email, quizID, at,
	).Scan(&c.ID)
	if err != nil {
		if isNoRows(err) {
			return domain.Completion{}, domain.ErrQuizNotFound
		}
		return domain.Completion{}, fmt.Errorf("insert completion: %w", err)
	}
	return c, nil
}

func (r *CompletionRepository) ListPageForUser(ctx context.Context, email string, page, size int) ([]domain.Completion, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM completions WHERE user_email = $1`, email,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count completions: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, quiz_id, user_email, completed_at FROM completions
		 WHERE user_email = $1
		 ORDER BY completed_at DESC, id ASC
		 LIMIT $2 OFFSET $3`, email, size, domain.PageRequest{Page: page, Size: size}.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Completion, 0, size)
	for rows.Next() {
		var c domain.Completion
		if err := rows.Scan(&c.ID, &c.QuizID, &c.UserEmail, &c.CompletedAt); err != nil {
			return nil, 0, fmt.Errorf("scan completion: %w", err)
		}
		c.CompletedAt = c.CompletedAt.UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list completions: %w", err)
	}
	return out, total, nil
}
