package memory

import (
	"context"
	"sort"
	"time"

	"quiz-engine/internal/domain"
)

// CompletionRepository is an in-memory implementation of app.CompletionRepository.
type CompletionRepository struct {
	db *Database
}

func NewCompletionRepository(db *Database) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// Record fails with domain.ErrQuizNotFound if the quiz was deleted in the meantime.
func (r *CompletionRepository) Record(_ context.Context, email string, quizID int64, at time.Time) (domain.Completion, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.quizzes[quizID]; !ok {
		return domain.Completion{}, domain.ErrQuizNotFound
	}
	r.db.lastCompletionID++
	c := domain.Completion{
		ID:          r.db.lastCompletionID,
		QuizID:      quizID,
		UserEmail:   email,
		CompletedAt: at,
	}
	r.db.completions = append(r.db.completions, c)
	return c, nil
}

func (r *CompletionRepository) ListPageForUser(_ context.Context, email string, page, size int) ([]domain.Completion, int, error) {
	r.db.mu.RLock()
	mine := make([]domain.Completion, 0)
	for _, c := range r.db.completions {
		if c.UserEmail == email {
			mine = append(mine, c)
		}
	}
	r.db.mu.RUnlock()

	sort.Slice(mine, func(i, j int) bool {
		if !mine[i].CompletedAt.Equal(mine[j].CompletedAt) {
			return mine[i].CompletedAt.After(mine[j].CompletedAt)
		}
		return mine[i].ID < mine[j].ID
	})

	start, end := pageBounds(len(mine), page, size)
	return mine[start:end:end], len(mine), nil
}
