package pkg

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore keeps contestant submissions on local disk, one directory per
// contestant.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// SaveFile writes an uploaded file under the owner's directory and returns
// the stored path.
func (s *FileStore) SaveFile(file *multipart.FileHeader, ownerID uuid.UUID) (string, error) {
	ownerDir := filepath.Join(s.dir, ownerID.String())
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(ownerDir, filepath.Base(file.Filename))

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("error opening uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("error copying file contents: %w", err)
	}

	return path, nil
}

func (s *FileStore) FilePath(ownerID uuid.UUID, filename string) string {
	return filepath.Join(s.dir, ownerID.String(), filepath.Base(filename))
}

// DeleteFiles removes everything stored for the owner.
func (s *FileStore) DeleteFiles(ownerID uuid.UUID) error {
	return os.RemoveAll(filepath.Join(s.dir, ownerID.String()))
}
