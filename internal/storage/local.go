package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore writes files below a directory on disk.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) resolve(p string) (string, error) {
	clean := path.Clean("/" + p)
	if clean == "/" {
		return "", fmt.Errorf("invalid storage path %q", p)
	}
	return filepath.Join(s.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Save writes file to disk, replacing any previous content.
func (s *LocalStore) Save(ctx context.Context, p string, file io.Reader, contentType string) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("create parent dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	n, err := copyAndClose(f, file)
	if err != nil {
		os.Remove(full)
		return nil, err
	}

	return &FileInfo{
		Path:     p,
		URL:      s.URL(p),
		FileName: filepath.Base(full),
		FileSize: n,
		FileType: contentType,
	}, nil
}

// copyAndClose writes r to w and closes w. A failed close is reported, since
// buffered data may only hit the disk there.
func copyAndClose(w io.WriteCloser, r io.Reader) (int64, error) {
	n, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		return n, fmt.Errorf("write file: %w", err)
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("close file: %w", err)
	}
	return n, nil
}

// Delete removes a file. Missing files are not an error.
func (s *LocalStore) Delete(_ context.Context, p string) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// URL returns the public URL for a stored file.
func (s *LocalStore) URL(p string) string {
	return s.baseURL + "/" + strings.TrimLeft(p, "/")
}
