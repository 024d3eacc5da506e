package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strconv"
	"strings"
	"time"

	"liggs/internal/domain"
	"liggs/internal/storage"
)

const (
	exportMimeType   = "text/plain"
	exportTimeLayout = "2006-01-02 15:04:05"
)

// ErrArchiveDisabled is returned by archive operations when no bucket is configured.
var ErrArchiveDisabled = errors.New("export archive is not configured")

// ExportService renders notes into downloadable files and optionally keeps a
// copy of every export in object storage.
type ExportService interface {
	Render(note domain.Note) domain.ExportFile
	ArchiveEnabled() bool
	Archive(ctx context.Context, userID int64, note domain.Note, file domain.ExportFile) (string, error)
	ListArchives(ctx context.Context, userID int64) ([]domain.ArchivedExport, error)
	PurgeArchives(ctx context.Context, userID, noteID int64) error
}

// ArchiveConfig points the export archive at a bucket.
type ArchiveConfig struct {
	Bucket    string
	KeyPrefix string
	URLExpiry time.Duration
}

type exportService struct {
	store storage.Service
	cfg   ArchiveConfig
	now   func() time.Time
}

// NewExportService accepts a nil store, in which case archiving is disabled
// and only Render is usable.
func NewExportService(store storage.Service, cfg ArchiveConfig) ExportService {
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = 15 * time.Minute
	}
	return &exportService{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// ExportFilename replaces spaces with underscores and appends ".txt". No other
// character is touched.
func ExportFilename(title string) string {
	return strings.ReplaceAll(title, " ", "_") + ".txt"
}

func (s *exportService) Render(note domain.Note) domain.ExportFile {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", note.Title)
	fmt.Fprintf(&b, "Created: %s\n", note.CreatedAt.UTC().Format(exportTimeLayout))
	fmt.Fprintf(&b, "Updated: %s\n\n", note.UpdatedAt.UTC().Format(exportTimeLayout))
	b.WriteString("---\n\n")
	b.WriteString(note.Content)

	return domain.ExportFile{
		Filename: ExportFilename(note.Title),
		Content:  b.Bytes(),
		MimeType: exportMimeType,
	}
}

func (s *exportService) ArchiveEnabled() bool {
	return s.store != nil && s.cfg.Bucket != ""
}

func (s *exportService) Archive(ctx context.Context, userID int64, note domain.Note, file domain.ExportFile) (string, error) {
	if !s.ArchiveEnabled() {
		return "", ErrArchiveDisabled
	}

	// not path.Join: a ".." in the title must stay inside the note prefix
	key := fmt.Sprintf("%s/%d-%s", s.notePrefix(userID, note.ID), s.now().UnixNano(), file.Filename)
	location, err := s.store.Upload(ctx, bytes.NewReader(file.Content), storage.UploadOptions{
		Bucket:             s.cfg.Bucket,
		Key:                key,
		ContentType:        file.MimeType + "; charset=utf-8",
		ContentDisposition: mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}),
	})
	if err != nil {
		return "", fmt.Errorf("archive note %d: %w", note.ID, err)
	}
	return location, nil
}

func (s *exportService) ListArchives(ctx context.Context, userID int64) ([]domain.ArchivedExport, error) {
	if !s.ArchiveEnabled() {
		return nil, ErrArchiveDisabled
	}

	prefix := s.userPrefix(userID) + "/"
	objects, err := s.store.ListObjects(ctx, s.cfg.Bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}

	archives := make([]domain.ArchivedExport, 0, len(objects))
	for _, obj := range objects {
		noteID, ok := parseNoteSegment(strings.TrimPrefix(obj.Key, prefix))
		if !ok {
			continue
		}
		url, err := s.store.GetObjectURL(ctx, s.cfg.Bucket, obj.Key, s.cfg.URLExpiry)
		if err != nil {
			return nil, fmt.Errorf("archive url: %w", err)
		}
		archives = append(archives, domain.ArchivedExport{
			Key:          obj.Key,
			NoteID:       noteID,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			URL:          url,
		})
	}
	return archives, nil
}

func (s *exportService) PurgeArchives(ctx context.Context, userID, noteID int64) error {
	if !s.ArchiveEnabled() {
		return ErrArchiveDisabled
	}
	if err := s.store.DeletePrefix(ctx, s.cfg.Bucket, s.notePrefix(userID, noteID)+"/"); err != nil {
		return fmt.Errorf("purge archives of note %d: %w", noteID, err)
	}
	return nil
}

func (s *exportService) userPrefix(userID int64) string {
	return path.Join(s.cfg.KeyPrefix, fmt.Sprintf("user-%d", userID))
}

func (s *exportService) notePrefix(userID, noteID int64) string {
	return path.Join(s.userPrefix(userID), fmt.Sprintf("note-%d", noteID))
}

// parseNoteSegment reads the note id out of "note-{id}/...".
func parseNoteSegment(rel string) (int64, bool) {
	segment, _, found := strings.Cut(rel, "/")
	if !found || !strings.HasPrefix(segment, "note-") {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(segment, "note-"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
