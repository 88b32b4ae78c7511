package libs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidStorageKey = errors.New("invalid storage key")

type StoredFile struct {
	Key string
	URL string
}

// FileStorage persists evidence files. Keys are slash separated.
type FileStorage interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (StoredFile, error)
	Delete(ctx context.Context, key string) error
}

type LocalStorage struct {
	root    string
	baseURL string
}

// NewLocalStorage stores files under root; URLs are baseURL + "/uploads/" + key.
func NewLocalStorage(root, baseURL string) *LocalStorage {
	return &LocalStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", ErrInvalidStorageKey
	}
	return filepath.Join(s.root, clean), nil
}

func (s *LocalStorage) Save(ctx context.Context, key string, r io.Reader, _ string) (StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return StoredFile{}, err
	}
	path, err := s.path(key)
	if err != nil {
		return StoredFile{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return StoredFile{}, fmt.Errorf("failed to create upload dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return StoredFile{}, fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return StoredFile{}, fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return StoredFile{}, err
	}

	return StoredFile{Key: key, URL: s.baseURL + "/uploads/" + strings.TrimLeft(key, "/")}, nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
