package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/amaumene/foldpredict/internal/domain"
)

const (
	tempFilePattern = ".upload-*"
	filePermissions = 0644
)

type FileStore struct {
	dir string
}

func NewFileStore(dir string, perm os.FileMode) (*FileStore, error) {
	if err := os.MkdirAll(dir, perm); err != nil {
		return nil, fmt.Errorf("creating structure directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes data to a temporary file and renames it into place so readers
// never observe a partially written structure.
func (s *FileStore) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}

	path, err := s.Path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %w", domain.ErrStorage, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing %s: %w", domain.ErrStorage, name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing %s: %w", domain.ErrStorage, name, err)
	}
	if err := os.Chmod(tmpName, filePermissions); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: setting permissions on %s: %w", domain.ErrStorage, name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: renaming %s: %w", domain.ErrStorage, name, err)
	}
	return nil
}

func (s *FileStore) Open(name string) (io.ReadCloser, int64, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("%w: stat %s: %w", domain.ErrStorage, name, err)
	}
	return f, info.Size(), nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *FileStore) Remove(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: removing %s: %w", domain.ErrStorage, name, err)
	}
	return nil
}

// Path resolves name inside the store directory, rejecting anything that
// is not a plain file name.
func (s *FileStore) Path(name string) (string, error) {
	if !isPlainFileName(name) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidFileName, name)
	}
	return filepath.Join(s.dir, name), nil
}

func isPlainFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return !strings.HasPrefix(name, ".")
}
