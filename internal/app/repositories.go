package app

import (
	"context"
	"time"

	"quiz-engine/internal/domain"
)

// UserRepository persists registered users keyed by email.
type UserRepository interface {
	// FindByEmail reports ok=false when no user has that email.
	FindByEmail(ctx context.Context, email string) (domain.User, bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create returns domain.ErrDuplicateIdentity if the email is taken.
	Create(ctx context.Context, user domain.User) (domain.User, error)
}

// QuizRepository stores quizzes (in-memory, Postgres, or a caching decorator over either).
type QuizRepository interface {
	// Create assigns a fresh id and returns the stored quiz.
	Create(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	// GetByID reports ok=false when the quiz does not exist.
	GetByID(ctx context.Context, id int64) (domain.Quiz, bool, error)
	// ListPage returns quizzes ordered by id ascending plus the total count.
	ListPage(ctx context.Context, page, size int) ([]domain.Quiz, int, error)
	// DeleteByID removes the quiz together with every completion referencing it.
	DeleteByID(ctx context.Context, id int64) error
}

// CompletionRepository is the append-only ledger of correct solves.
type CompletionRepository interface {
	Record(ctx context.Context, email string, quizID int64, at time.Time) (domain.Completion, error)
	// ListPageForUser orders by completion time descending, then id ascending.
	ListPageForUser(ctx context.Context, email string, page, size int) ([]domain.Completion, int, error)
}

// PasswordHasher hashes passwords one-way with a per-hash salt.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}
