// Package storage abstracts file persistence behind a small interface so the
// API can run against local disk in development and S3-compatible object
// storage in production.
package storage

import (
	"context"
	"io"
)

// FileInfo describes a stored file, returned to the client after upload.
type FileInfo struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}

// Store is implemented by all storage backends.
type Store interface {
	// Save persists the file at the given path and returns its metadata.
	Save(ctx context.Context, path string, file io.Reader, contentType string) (*FileInfo, error)
	// Delete removes a stored file.
	Delete(ctx context.Context, path string) error
	// URL returns the retrievable URL for a stored file.
	URL(path string) string
}
