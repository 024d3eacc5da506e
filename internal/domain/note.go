package domain

import "time"

const (
	// DefaultNoteTitle is applied when a create or update omits the title.
	DefaultNoteTitle = "Untitled"
	// PreviewLength is the number of content characters carried by a NoteSummary.
	PreviewLength = 80
)

// Note is a single text note owned by exactly one user.
type Note struct {
	ID        int64
	UserID    int64
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteSummary is the list view of a note.
type NoteSummary struct {
	ID        int64
	Title     string
	Preview   string
	UpdatedAt time.Time
}

// NoteInput carries the optional fields of a create or update request.
// A nil field means the client omitted it.
type NoteInput struct {
	Title   *string
	Content *string
}

// Resolve applies the defaults for omitted fields.
func (in NoteInput) Resolve() (title, content string) {
	title = DefaultNoteTitle
	if in.Title != nil {
		title = *in.Title
	}
	if in.Content != nil {
		content = *in.Content
	}
	return title, content
}
