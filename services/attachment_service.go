package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/inkdesk/commission-api/utils"
	"github.com/rs/zerolog/log"
)

// AttachmentService handles all attachment operations including upload, URL resolution, and deletion
type AttachmentService interface {
	// Upload validates and stores a file, returns the storage key
	Upload(ctx context.Context, category utils.Category, fileHeader *multipart.FileHeader) (string, error)

	// URL generates a URL for accessing a stored attachment
	URL(ctx context.Context, key string) (string, error)

	// Delete removes an attachment from storage
	Delete(ctx context.Context, key string) error
}

// StoreAttachmentService implements AttachmentService on top of a FileStore
type StoreAttachmentService struct {
	store FileStore
}

var attachmentServiceInstance AttachmentService

// InitAttachmentService initializes the attachment service with the given backend
func InitAttachmentService(store FileStore) AttachmentService {
	attachmentServiceInstance = &StoreAttachmentService{store: store}
	return attachmentServiceInstance
}

// GetAttachmentService returns the initialized attachment service instance
func GetAttachmentService() AttachmentService {
	return attachmentServiceInstance
}

// SetAttachmentService sets the attachment service instance (primarily for testing)
func SetAttachmentService(service AttachmentService) {
	attachmentServiceInstance = service
}

// Store exposes the backend, used to serve local files
func (s *StoreAttachmentService) Store() FileStore {
	return s.store
}

// Upload validates the file for its category and writes it under category/<uuid><ext>
func (s *StoreAttachmentService) Upload(ctx context.Context, category utils.Category, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateUpload(category, fileHeader); err != nil {
		return "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, utils.MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) > utils.MaxFileSize {
		return "", &utils.FileUploadError{Code: "FILE_TOO_LARGE", Message: "File size exceeds maximum allowed size of 10 MB"}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	key := fmt.Sprintf("%s/%s%s", category, uuid.NewString(), ext)
	contentType := mimetype.Detect(content).String()

	if err := s.store.Put(ctx, key, bytes.NewReader(content), contentType); err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	log.Info().Str("key", key).Str("content_type", contentType).Int("size", len(content)).Msg("stored attachment")
	return key, nil
}

// URL resolves the access URL of a stored attachment
func (s *StoreAttachmentService) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	url, err := s.store.URL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to generate attachment URL: %w", err)
	}

	return url, nil
}

// Delete removes an attachment from the backend
func (s *StoreAttachmentService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	return nil
}

// ResolveURL returns the URL for key, or nil when there is no key or no
// attachment service. Failures are logged and yield nil.
func ResolveURL(ctx context.Context, key string) *string {
	if key == "" || attachmentServiceInstance == nil {
		return nil
	}
	url, err := attachmentServiceInstance.URL(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("could not resolve attachment URL")
		return nil
	}
	return &url
}

// ResolveOptionalURL is ResolveURL for nullable key columns
func ResolveOptionalURL(ctx context.Context, key *string) *string {
	if key == nil {
		return nil
	}
	return ResolveURL(ctx, *key)
}

// DeleteAttachments removes every non-empty key, logging failures
func DeleteAttachments(ctx context.Context, keys ...string) {
	if attachmentServiceInstance == nil {
		return
	}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := attachmentServiceInstance.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to delete attachment")
		}
	}
}
