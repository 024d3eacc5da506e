package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"liggs/internal/repository/sqlite"
)

type testServices struct {
	users UserService
	notes NoteService
}

func newTestServices(t *testing.T) testServices {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "liggs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	noteRepo := sqlite.NewNoteRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, noteRepo.Init(ctx))

	return testServices{
		users: NewUserService(userRepo, bcrypt.MinCost),
		notes: NewNoteService(noteRepo),
	}
}

func strPtr(s string) *string {
	return &s
}
