package services

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MockFileStore is an in-memory FileStore for testing
type MockFileStore struct {
	files        map[string][]byte // map of storage key to file content
	contentTypes map[string]string
	mu           sync.RWMutex
}

// NewMockFileStore creates a new mock file store
func NewMockFileStore() *MockFileStore {
	return &MockFileStore{
		files:        make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

// SetAsMockForTesting installs an attachment service backed by this mock as the global instance
func (m *MockFileStore) SetAsMockForTesting() {
	InitAttachmentService(m)
}

// Put stores the body in memory
func (m *MockFileStore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	content, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	m.mu.Lock()
	m.files[key] = content
	m.contentTypes[key] = contentType
	m.mu.Unlock()

	return nil
}

// URL returns a mock URL; unknown keys are an error
func (m *MockFileStore) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.files[key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("file not found in mock storage: %s", key)
	}

	return fmt.Sprintf("https://test-bucket.s3.ap-southeast-1.amazonaws.com/%s?mock=true", key), nil
}

// Delete removes the key from memory
func (m *MockFileStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.files, key)
	delete(m.contentTypes, key)
	m.mu.Unlock()
	return nil
}

// Files returns a copy of all stored files (for testing assertions)
func (m *MockFileStore) Files() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make(map[string][]byte, len(m.files))
	for k, v := range m.files {
		files[k] = v
	}
	return files
}

// FileExists checks if a key exists in mock storage
func (m *MockFileStore) FileExists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.files[key]
	return exists
}

// ContentType returns the content type recorded for key
func (m *MockFileStore) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contentTypes[key]
}

// Seed places content under key directly (for fixtures)
func (m *MockFileStore) Seed(key string, content []byte) {
	m.mu.Lock()
	m.files[key] = content
	m.mu.Unlock()
}

// Clear removes all files from mock storage
func (m *MockFileStore) Clear() {
	m.mu.Lock()
	m.files = make(map[string][]byte)
	m.contentTypes = make(map[string]string)
	m.mu.Unlock()
}
