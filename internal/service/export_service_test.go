package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liggs/internal/domain"
	"liggs/internal/storage/storagetest"
)

func sampleNote() domain.Note {
	return domain.Note{
		ID:        7,
		UserID:    3,
		Title:     "My shopping list",
		Content:   "milk\neggs",
		CreatedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 3, 2, 18, 5, 59, 500, time.UTC),
	}
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "My_shopping_list.txt", ExportFilename("My shopping list"))
	assert.Equal(t, "a/b_c.txt", ExportFilename("a/b c"))
	assert.Equal(t, ".txt", ExportFilename(""))
}

func TestExportService_Render(t *testing.T) {
	svc := NewExportService(nil, ArchiveConfig{})

	file := svc.Render(sampleNote())
	assert.Equal(t, "My_shopping_list.txt", file.Filename)
	assert.Equal(t, "text/plain", file.MimeType)
	assert.Equal(t, "# My shopping list\n\n"+
		"Created: 2024-03-01 09:30:00\n"+
		"Updated: 2024-03-02 18:05:59\n\n"+
		"---\n\n"+
		"milk\neggs", string(file.Content))
}

func TestExportService_ArchiveDisabled(t *testing.T) {
	ctx := context.Background()
	for _, svc := range []ExportService{
		NewExportService(nil, ArchiveConfig{Bucket: "b"}),
		NewExportService(storagetest.NewMemory(), ArchiveConfig{}),
	} {
		assert.False(t, svc.ArchiveEnabled())
		note := sampleNote()
		_, err := svc.Archive(ctx, note.UserID, note, svc.Render(note))
		assert.ErrorIs(t, err, ErrArchiveDisabled)
		_, err = svc.ListArchives(ctx, note.UserID)
		assert.ErrorIs(t, err, ErrArchiveDisabled)
		assert.ErrorIs(t, svc.PurgeArchives(ctx, note.UserID, note.ID), ErrArchiveDisabled)
	}
}

func TestExportService_ArchiveLifecycle(t *testing.T) {
	ctx := context.Background()
	store := storagetest.NewMemory()
	svc := NewExportService(store, ArchiveConfig{Bucket: "exports", KeyPrefix: "/liggs/", URLExpiry: time.Minute})
	svc.(*exportService).now = func() time.Time { return time.Unix(0, 42) }

	note := sampleNote()
	file := svc.Render(note)
	location, err := svc.Archive(ctx, note.UserID, note, file)
	require.NoError(t, err)
	assert.Equal(t, "s3://exports/liggs/user-3/note-7/42-My_shopping_list.txt", location)

	obj, ok := store.Get("exports", "liggs/user-3/note-7/42-My_shopping_list.txt")
	require.True(t, ok)
	assert.Equal(t, file.Content, obj.Body)
	assert.Equal(t, "text/plain; charset=utf-8", obj.ContentType)
	assert.Contains(t, obj.ContentDisposition, "My_shopping_list.txt")

	other := note
	other.ID = 8
	other.UserID = 4
	_, err = svc.Archive(ctx, other.UserID, other, svc.Render(other))
	require.NoError(t, err)

	archives, err := svc.ListArchives(ctx, note.UserID)
	require.NoError(t, err)
	require.Len(t, archives, 1)
	assert.Equal(t, int64(7), archives[0].NoteID)
	assert.Equal(t, int64(len(file.Content)), archives[0].Size)
	assert.True(t, strings.HasPrefix(archives[0].URL, "https://exports.example.test/liggs/user-3/"))

	require.NoError(t, svc.PurgeArchives(ctx, note.UserID, note.ID))
	assert.Equal(t, []string{"liggs/user-4/note-8/42-My_shopping_list.txt"}, store.Keys("exports"))
}

func TestExportService_ArchiveKeepsDotDotInsideNotePrefix(t *testing.T) {
	ctx := context.Background()
	store := storagetest.NewMemory()
	svc := NewExportService(store, ArchiveConfig{Bucket: "exports"})
	svc.(*exportService).now = func() time.Time { return time.Unix(0, 1) }

	note := sampleNote()
	note.Title = "../../../escape"
	_, err := svc.Archive(ctx, note.UserID, note, svc.Render(note))
	require.NoError(t, err)
	assert.Equal(t, []string{"user-3/note-7/1-../../../escape.txt"}, store.Keys("exports"))
}

func TestExportService_ArchiveStoreFailure(t *testing.T) {
	store := storagetest.NewMemory()
	store.SetErr(errors.New("bucket unavailable"))
	svc := NewExportService(store, ArchiveConfig{Bucket: "exports"})

	note := sampleNote()
	_, err := svc.Archive(context.Background(), note.UserID, note, svc.Render(note))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrArchiveDisabled)
	assert.Contains(t, err.Error(), "bucket unavailable")
}
