package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/inkdesk/commission-api/utils"
)

// LocalStore keeps attachments on the local filesystem and serves them through
// the uploads endpoint
type LocalStore struct {
	Root    string
	BaseURL string
}

// NewLocalStore creates a store rooted at dir
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{Root: dir, BaseURL: "/api/v1/uploads"}
}

// Path resolves a storage key to a file path under Root
func (s *LocalStore) Path(key string) (string, error) {
	if !utils.ValidStorageKey(key) {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(s.Root, filepath.FromSlash(key)), nil
}

// Put writes the body to Root/key
func (s *LocalStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (err error) {
	fullPath, err := s.Path(key)
	if err != nil {
		return err
	}

	// Create the category directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err := io.Copy(dst, body); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}

	return nil
}

// URL returns the API path serving the file
func (s *LocalStore) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return s.BaseURL + "/" + key, nil
}

// Delete removes the file; a missing file is not an error
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	fullPath, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
