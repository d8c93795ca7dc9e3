package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReceiptStorage persists uploaded wallet receipt images.
type ReceiptStorage interface {
	// Save stores data under name and returns the stored path.
	Save(name string, data []byte) (string, error)
	Remove(path string) error
}

// FileReceiptStorage writes receipt images under a base directory.
type FileReceiptStorage struct {
	baseDir string
}

func NewFileReceiptStorage(baseDir string) *FileReceiptStorage {
	return &FileReceiptStorage{baseDir: baseDir}
}

func (s *FileReceiptStorage) Save(name string, data []byte) (string, error) {
	if strings.ContainsAny(name, `/\`) || name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("receipts: invalid file name %q", name)
	}
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("receipts: create dir: %w", err)
	}
	path := filepath.Join(s.baseDir, name)
	// O_EXCL: never overwrite an existing receipt
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("receipts: create file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("receipts: write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("receipts: close file: %w", err)
	}
	return path, nil
}

func (s *FileReceiptStorage) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
