package memory

import (
	"slices"
	"sync"

	"quiz-engine/internal/domain"
)

// Database is the shared in-process state behind the memory repositories.
// Quizzes and completions live together so a quiz delete can drop its
// completions in the same critical section.
type Database struct {
	mu               sync.RWMutex
	users            map[string]domain.User
	quizzes          map[int64]domain.Quiz
	completions      []domain.Completion
	lastQuizID       int64
	lastCompletionID int64
}

func NewDatabase() *Database {
	return &Database{
		users:   make(map[string]domain.User),
		quizzes: make(map[int64]domain.Quiz),
	}
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	q.Options = slices.Clone(q.Options)
	q.Answer = slices.Clone(q.Answer)
	return q
}

// pageBounds clips the requested page to n items.
func pageBounds(n, page, size int) (int, int) {
	start := domain.PageRequest{Page: page, Size: size}.Offset()
	if start > n {
		start = n
	}
	end := n
	if size < n-start {
		end = start + size
	}
	return start, end
}
