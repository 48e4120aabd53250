package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"quiz-engine/internal/domain"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	var u domain.User
	err := r.db.QueryRow(ctx,
		`SELECT email, password_hash, created_at FROM users WHERE email = $1`, email,
	).Scan(&u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("select user: %w", err)
	}
	return u, true, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return exists, nil
}

// Create relies on the primary key to reject a concurrent registration of the same email.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (email, password_hash, created_at) VALUES ($1, $2, $3)`,
		user.Email, user.PasswordHash, user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.User{}, domain.ErrDuplicateIdentity
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}
