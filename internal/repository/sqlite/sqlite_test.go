package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liggs/internal/domain"
	"liggs/internal/repository"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "nested", "liggs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, NewUserRepository(db).Init(ctx))
	require.NoError(t, NewNoteRepository(db).Init(ctx))
	return db
}

func createUser(t *testing.T, users repository.UserRepository, name string) int64 {
	t.Helper()
	id, err := users.Create(context.Background(), &domain.User{Username: name, PasswordHash: "hash-" + name})
	require.NoError(t, err)
	return id
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(newTestDB(t))

	user := &domain.User{Username: "alice", PasswordHash: "h1"}
	id, err := users.Create(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	byName, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)
	assert.Equal(t, "h1", byName.PasswordHash)

	byID, err := users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = users.GetByUsername(ctx, "Alice")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(newTestDB(t))

	_, err := users.Create(ctx, &domain.User{Username: "alice", PasswordHash: "first"})
	require.NoError(t, err)

	_, err = users.Create(ctx, &domain.User{Username: "alice", PasswordHash: "second"})
	require.ErrorIs(t, err, repository.ErrUsernameTaken)

	stored, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "first", stored.PasswordHash)

	// usernames are case-sensitive
	_, err = users.Create(ctx, &domain.User{Username: "ALICE", PasswordHash: "third"})
	assert.NoError(t, err)
}

func TestNoteRepository_CreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	notes := NewNoteRepository(db)
	owner := createUser(t, NewUserRepository(db), "alice")

	created, err := notes.Create(ctx, owner, "T", "C")
	require.NoError(t, err)
	assert.Equal(t, owner, created.UserID)
	assert.Equal(t, "T", created.Title)
	assert.Equal(t, "C", created.Content)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

	got, err := notes.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "C", got.Content)
	assert.True(t, got.CreatedAt.Equal(got.UpdatedAt))
}

func TestNoteRepository_UpdateBumpsTimestamp(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	notes := NewNoteRepository(db)
	owner := createUser(t, NewUserRepository(db), "alice")

	created, err := notes.Create(ctx, owner, "T", "C")
	require.NoError(t, err)

	updated, err := notes.Update(ctx, owner, created.ID, "X", "")
	require.NoError(t, err)
	assert.Equal(t, "X", updated.Title)
	assert.Equal(t, "", updated.Content)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestNoteRepository_UpdateMissingNote(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := createUser(t, NewUserRepository(db), "alice")

	_, err := NewNoteRepository(db).Update(ctx, owner, 42, "X", "Y")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestNoteRepository_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	notes := NewNoteRepository(db)
	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")

	note, err := notes.Create(ctx, alice, "private", "alice only")
	require.NoError(t, err)

	_, err = notes.Get(ctx, bob, note.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = notes.Update(ctx, bob, note.ID, "hijacked", "")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, notes.Delete(ctx, bob, note.ID))

	list, err := notes.List(ctx, bob, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	stored, err := notes.Get(ctx, alice, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", stored.Title)
	assert.Equal(t, "alice only", stored.Content)
}

func TestNoteRepository_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	notes := NewNoteRepository(db)
	owner := createUser(t, NewUserRepository(db), "alice")

	note, err := notes.Create(ctx, owner, "T", "C")
	require.NoError(t, err)

	require.NoError(t, notes.Delete(ctx, owner, note.ID))
	require.NoError(t, notes.Delete(ctx, owner, note.ID))
	require.NoError(t, notes.Delete(ctx, owner, 9999))

	_, err = notes.Get(ctx, owner, note.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestNoteRepository_ListOrderAndSearch(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	notes := NewNoteRepository(db)
	owner := createUser(t, NewUserRepository(db), "alice")

	first, err := notes.Create(ctx, owner, "Shopping", "milk eggs")
	require.NoError(t, err)
	second, err := notes.Create(ctx, owner, "Greeting", "say HELLO to everyone")
	require.NoError(t, err)
	third, err := notes.Create(ctx, owner, "hello world", "")
	require.NoError(t, err)

	all, err := notes.List(ctx, owner, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, summaryIDs(all))

	_, err = notes.Update(ctx, owner, first.ID, "Shopping", "milk eggs bread")
	require.NoError(t, err)

	all, err = notes.List(ctx, owner, "")
	require.NoError(t, err)
	assert.Equal(t, []int64{first.ID, third.ID, second.ID}, summaryIDs(all))

	hello, err := notes.List(ctx, owner, "hello")
	require.NoError(t, err)
	assert.Equal(t, []int64{third.ID, second.ID}, summaryIDs(hello))

	milk, err := notes.List(ctx, owner, "MILK")
	require.NoError(t, err)
	require.Len(t, milk, 1)
	assert.Equal(t, "Shopping", milk[0].Title)
	assert.Equal(t, "milk eggs bread", milk[0].Preview)

	none, err := notes.List(ctx, owner, "absent")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestNoteRepository_SearchWildcardsAreNotEscaped(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	notes := NewNoteRepository(db)
	owner := createUser(t, NewUserRepository(db), "alice")

	_, err := notes.Create(ctx, owner, "cat", "")
	require.NoError(t, err)

	list, err := notes.List(ctx, owner, "c_t")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNoteRepository_PreviewTruncatesCharacters(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	notes := NewNoteRepository(db)
	owner := createUser(t, NewUserRepository(db), "alice")

	content := strings.Repeat("é", 100)
	_, err := notes.Create(ctx, owner, "long", content)
	require.NoError(t, err)

	list, err := notes.List(ctx, owner, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, strings.Repeat("é", domain.PreviewLength), list[0].Preview)
}

func summaryIDs(notes []domain.NoteSummary) []int64 {
	ids := make([]int64, len(notes))
	for i := range notes {
		ids[i] = notes[i].ID
	}
	return ids
}
