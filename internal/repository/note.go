package repository

import (
	"context"

	"liggs/internal/domain"
)

// NoteRepository exposes owner-scoped persistence for notes. Every method
// filters by the owning user id; a note owned by someone else is reported as
// ErrNotFound.
type NoteRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, userID int64, title, content string) (*domain.Note, error)
	Get(ctx context.Context, userID, id int64) (*domain.Note, error)
	Update(ctx context.Context, userID, id int64, title, content string) (*domain.Note, error)
	Delete(ctx context.Context, userID, id int64) error
	List(ctx context.Context, userID int64, query string) ([]domain.NoteSummary, error)
}
