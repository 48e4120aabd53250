package memory

import (
	"context"
	"sort"

	"quiz-engine/internal/domain"
)

// QuizRepository is an in-memory implementation of app.QuizRepository.
type QuizRepository struct {
	db *Database
}

func NewQuizRepository(db *Database) *QuizRepository {
	return &QuizRepository{db: db}
}

func (r *QuizRepository) Create(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.lastQuizID++
	quiz = cloneQuiz(quiz)
	quiz.ID = r.db.lastQuizID
	r.db.quizzes[quiz.ID] = quiz
	return cloneQuiz(quiz), nil
}

func (r *QuizRepository) GetByID(_ context.Context, id int64) (domain.Quiz, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	quiz, ok := r.db.quizzes[id]
	if !ok {
		return domain.Quiz{}, false, nil
	}
	return cloneQuiz(quiz), true, nil
}

func (r *QuizRepository) ListPage(_ context.Context, page, size int) ([]domain.Quiz, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	ids := make([]int64, 0, len(r.db.quizzes))
	for id := range r.db.quizzes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	start, end := pageBounds(len(ids), page, size)
	items := make([]domain.Quiz, 0, end-start)
	for _, id := range ids[start:end] {
		items = append(items, cloneQuiz(r.db.quizzes[id]))
	}
	return items, len(ids), nil
}

// DeleteByID drops the quiz's completions first, then the quiz itself.
func (r *QuizRepository) DeleteByID(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}

	kept := r.db.completions[:0]
	for _, c := range r.db.completions {
		if c.QuizID != id {
			kept = append(kept, c)
		}
	}
	clear(r.db.completions[len(kept):])
	r.db.completions = kept

	delete(r.db.quizzes, id)
	return nil
}
