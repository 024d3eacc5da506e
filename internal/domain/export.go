package domain

import "time"

// ExportFile is a rendered note ready to be downloaded.
type ExportFile struct {
	Filename string
	Content  []byte
	MimeType string
}

// ArchivedExport describes an export copy kept in object storage.
type ArchivedExport struct {
	Key          string
	NoteID       int64
	Size         int64
	LastModified *time.Time
	URL          string
}
