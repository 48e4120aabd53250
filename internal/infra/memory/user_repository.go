package memory

import (
	"context"

	"quiz-engine/internal/domain"
)

// UserRepository is an in-memory implementation of app.UserRepository.
type UserRepository struct {
	db *Database
}

func NewUserRepository(db *Database) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (domain.User, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	user, ok := r.db.users[email]
	return user, ok, nil
}

func (r *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	_, ok := r.db.users[email]
	return ok, nil
}

func (r *UserRepository) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[user.Email]; ok {
		return domain.User{}, domain.ErrDuplicateIdentity
	}
	r.db.users[user.Email] = user
	return user, nil
}
