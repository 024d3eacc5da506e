package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"liggs/internal/domain"
	"liggs/internal/repository"
)

const (
	createNotesTable = `
CREATE TABLE IF NOT EXISTS notes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	title TEXT NOT NULL DEFAULT 'Untitled',
	content TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`
	createNotesOwnerIndex = `
CREATE INDEX IF NOT EXISTS idx_notes_user_updated ON notes (user_id, updated_at DESC);
`
	selectNoteColumns = `SELECT id, user_id, title, content, created_at, updated_at FROM notes`
)

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) repository.NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createNotesTable); err != nil {
		return fmt.Errorf("create notes table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createNotesOwnerIndex); err != nil {
		return fmt.Errorf("create notes index: %w", err)
	}
	return nil
}

func (r *NoteRepository) Create(ctx context.Context, userID int64, title, content string) (*domain.Note, error) {
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
INSERT INTO notes (user_id, title, content, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		userID,
		title,
		content,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("note last insert id: %w", err)
	}

	note, err := getNote(ctx, tx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit note insert: %w", err)
	}
	return note, nil
}

func (r *NoteRepository) Get(ctx context.Context, userID, id int64) (*domain.Note, error) {
	return getNote(ctx, r.db, userID, id)
}

// Update overwrites title and content and bumps updated_at. The read-back is
// scoped to the owner, so an update aimed at someone else's note is a no-op
// that surfaces as ErrNotFound.
func (r *NoteRepository) Update(ctx context.Context, userID, id int64, title, content string) (*domain.Note, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
UPDATE notes
SET title=?, content=?, updated_at=?
WHERE id=? AND user_id=?`,
		title,
		content,
		time.Now().UTC(),
		id,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}

	note, err := getNote(ctx, tx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit note update: %w", err)
	}
	return note, nil
}

// Delete succeeds whether or not a matching row existed.
func (r *NoteRepository) Delete(ctx context.Context, userID, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id=? AND user_id=?`, id, userID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// List returns the owner's notes, newest update first. A non-empty query is
// matched with LIKE against title and content; '%' and '_' inside the query
// keep their wildcard meaning.
func (r *NoteRepository) List(ctx context.Context, userID int64, query string) ([]domain.NoteSummary, error) {
	var (
		b    strings.Builder
		args = []any{domain.PreviewLength, userID}
	)
	b.WriteString(`
SELECT id, title, substr(content, 1, ?), updated_at
FROM notes
WHERE user_id = ?`)
	if query != "" {
		pattern := "%" + query + "%"
		b.WriteString(`
AND (title LIKE ? OR content LIKE ?)`)
		args = append(args, pattern, pattern)
	}
	b.WriteString(`
ORDER BY updated_at DESC, id DESC`)

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	notes := []domain.NoteSummary{}
	for rows.Next() {
		var n domain.NoteSummary
		if err := rows.Scan(&n.ID, &n.Title, &n.Preview, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note summary: %w", err)
		}
		n.UpdatedAt = n.UpdatedAt.UTC()
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getNote(ctx context.Context, q queryRower, userID, id int64) (*domain.Note, error) {
	row := q.QueryRowContext(ctx, selectNoteColumns+`
WHERE id=? AND user_id=?`,
		id,
		userID,
	)
	return scanNote(row)
}

func scanNote(scanner interface {
	Scan(dest ...any) error
}) (*domain.Note, error) {
	var note domain.Note
	if err := scanner.Scan(
		&note.ID,
		&note.UserID,
		&note.Title,
		&note.Content,
		&note.CreatedAt,
		&note.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("note: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan note: %w", err)
	}
	note.CreatedAt = note.CreatedAt.UTC()
	note.UpdatedAt = note.UpdatedAt.UTC()
	return &note, nil
}
