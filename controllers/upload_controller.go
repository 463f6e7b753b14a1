package controllers

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inkdesk/commission-api/services"
	"github.com/inkdesk/commission-api/utils"
)

// GetUploadedFile handles GET /api/v1/uploads/*key - serves attachments kept in local storage
func GetUploadedFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	// Validate key is not empty
	if key == "" {
		utils.RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "File key is required")
		return
	}

	// Security: Prevent directory traversal attacks
	if !utils.ValidStorageKey(key) {
		utils.RespondError(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid file key")
		return
	}

	store, ok := localStore()
	if !ok {
		utils.RespondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "File not found")
		return
	}

	filePath, err := store.Path(key)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid file key")
		return
	}

	// Check if file exists
	if info, err := os.Stat(filePath); err != nil || info.IsDir() {
		utils.RespondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "File not found")
		return
	}

	c.Header("Cache-Control", "private, max-age=86400")
	c.File(filePath)
}

// localStore returns the local backend when attachments are kept on disk
func localStore() (*services.LocalStore, bool) {
	attachments, ok := services.GetAttachmentService().(*services.StoreAttachmentService)
	if !ok {
		return nil, false
	}
	store, ok := attachments.Store().(*services.LocalStore)
	return store, ok
}
