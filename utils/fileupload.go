package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	// MaxFileSize is 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
)

// Category is the logical bucket an attachment is stored under
type Category string

const (
	CategoryAvatar   Category = "avatars"
	CategoryQRCode   Category = "qr"
	CategoryBrief    Category = "briefs"
	CategorySample   Category = "samples"
	CategoryProgress Category = "progress"
	CategoryPayment  Category = "payments"
	CategoryMessage  Category = "messages"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// Briefs are reference material and may be documents or archives as well as images
var briefExtensions = append([]string{".pdf", ".zip", ".psd", ".txt"}, imageExtensions...)

// AllowedExtensions returns the accepted file extensions for a category
func AllowedExtensions(category Category) []string {
	if category == CategoryBrief {
		return briefExtensions
	}
	return imageExtensions
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateUpload validates the uploaded file size and extension for a category
func ValidateUpload(category Category, fileHeader *multipart.FileHeader) error {
	if fileHeader == nil {
		return &FileUploadError{Code: "FILE_REQUIRED", Message: "A file is required"}
	}

	// Check file size
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	// Check file extension
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	for _, allowed := range AllowedExtensions(category) {
		if ext == allowed {
			return nil
		}
	}

	return &FileUploadError{
		Code:    "INVALID_FILE_FORMAT",
		Message: fmt.Sprintf("Only %s files are allowed", strings.Join(AllowedExtensions(category), ", ")),
	}
}

// ValidStorageKey rejects keys that could escape the storage root
func ValidStorageKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
