package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"liggs/internal/domain"
	"liggs/internal/repository"
)

const (
	// username comparison is case sensitive (BINARY collation)
	createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`
	selectUserColumns = `SELECT id, username, password_hash, created_at FROM users`
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

// Create inserts the user and fills in ID and CreatedAt. A username that is
// already stored yields repository.ErrUsernameTaken and leaves the existing
// row untouched.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	createdAt := time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		user.Username, user.PasswordHash, createdAt,
	)
	switch {
	case err == nil:
	case isUniqueViolation(err):
		return 0, fmt.Errorf("insert user %q: %w", user.Username, repository.ErrUsernameTaken)
	default:
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user last insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt = createdAt
	return id, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getBy(ctx, "id", id)
}

// column is always a literal from this file.
func (r *UserRepository) getBy(ctx context.Context, column string, value any) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRowContext(ctx, selectUserColumns+` WHERE `+column+` = ?`, value).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user by %s: %w", column, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("query user by %s: %w", column, err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
