package service

import (
	"context"
	"errors"
	"strings"

	"liggs/internal/domain"
	"liggs/internal/repository"
)

// ErrNoteNotFound covers both missing notes and notes owned by another user.
var ErrNoteNotFound = errors.New("not found")

// NoteService coordinates owner-scoped note operations.
type NoteService interface {
	ListNotes(ctx context.Context, userID int64, query string) ([]domain.NoteSummary, error)
	CreateNote(ctx context.Context, userID int64, in domain.NoteInput) (*domain.Note, error)
	GetNote(ctx context.Context, userID, id int64) (*domain.Note, error)
	UpdateNote(ctx context.Context, userID, id int64, in domain.NoteInput) (*domain.Note, error)
	DeleteNote(ctx context.Context, userID, id int64) error
}

type noteService struct {
	notes repository.NoteRepository
}

func NewNoteService(notes repository.NoteRepository) NoteService {
	return &noteService{notes: notes}
}

func (s *noteService) ListNotes(ctx context.Context, userID int64, query string) ([]domain.NoteSummary, error) {
	return s.notes.List(ctx, userID, strings.TrimSpace(query))
}

func (s *noteService) CreateNote(ctx context.Context, userID int64, in domain.NoteInput) (*domain.Note, error) {
	title, content := in.Resolve()
	return s.notes.Create(ctx, userID, title, content)
}

func (s *noteService) GetNote(ctx context.Context, userID, id int64) (*domain.Note, error) {
	note, err := s.notes.Get(ctx, userID, id)
	return note, translateNotFound(err)
}

// UpdateNote resets omitted fields to their defaults rather than keeping the
// stored values.
func (s *noteService) UpdateNote(ctx context.Context, userID, id int64, in domain.NoteInput) (*domain.Note, error) {
	title, content := in.Resolve()
	note, err := s.notes.Update(ctx, userID, id, title, content)
	return note, translateNotFound(err)
}

func (s *noteService) DeleteNote(ctx context.Context, userID, id int64) error {
	return s.notes.Delete(ctx, userID, id)
}

func translateNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNoteNotFound
	}
	return err
}
