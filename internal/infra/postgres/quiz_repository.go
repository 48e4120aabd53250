package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-engine/internal/domain"
)

// QuizRepository stores quizzes with options as text[] and the answer as int4[].
type QuizRepository struct {
	pool *pgxpool.Pool
}

func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

func (r *QuizRepository) Create(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (owner_email, title, text, options, answer)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		quiz.Owner, quiz.Title, quiz.Text, quiz.Options, toInt32s(quiz.Answer),
	).Scan(&quiz.ID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	return quiz, nil
}

func (r *QuizRepository) GetByID(ctx context.Context, id int64) (domain.Quiz, bool, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, owner_email, title, text, options, answer FROM quizzes WHERE id = $1`, id)
	quiz, err := scanQuiz(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, false, nil
	}
	if err != nil {
		return domain.Quiz{}, false, fmt.Errorf("select quiz %d: %w", id, err)
	}
	return quiz, true, nil
}

func (r *QuizRepository) ListPage(ctx context.Context, page, size int) ([]domain.Quiz, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM quizzes`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count quizzes: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_email, title, text, options, answer FROM quizzes
		 ORDER BY id
		 LIMIT $1 OFFSET $2`, size, domain.PageRequest{Page: page, Size: size}.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := make([]domain.Quiz, 0, size)
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, total, nil
}

// DeleteByID removes the completions and the quiz in one transaction.
func (r *QuizRepository) DeleteByID(ctx context.Context, id int64) error {
	return WithTx(ctx, r.pool, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.Exec(ctx, `DELETE FROM completions WHERE quiz_id = $1`, id); err != nil {
			return fmt.Errorf("delete completions: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete quiz: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrQuizNotFound
		}
		return nil
	})
}

func scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var (
		quiz   domain.Quiz
		answer []int32
	)
	if err := row.Scan(&quiz.ID, &quiz.Owner, &quiz.Title, &quiz.Text, &quiz.Options, &answer); err != nil {
		return domain.Quiz{}, err
	}
	quiz.Answer = make([]int, len(answer))
	for i, v := range answer {
		quiz.Answer[i] = int(v)
	}
	if quiz.Options == nil {
		quiz.Options = []string{}
	}
	return quiz, nil
}

func toInt32s(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}
