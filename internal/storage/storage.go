// Package storage archives generated readiness reports. Two backends exist:
// LocalStore for development and R2Store for production.
package storage

import (
	"context"
	"io"
)

// FileInfo describes a stored object.
type FileInfo struct {
	Path     string `json:"path"`
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type"`
}

// Store persists report files under slash-separated paths.
type Store interface {
	Save(ctx context.Context, path string, file io.Reader, contentType string) (*FileInfo, error)
	Delete(ctx context.Context, path string) error
	URL(path string) string
}
