package controllers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/inkdesk/commission-api/middleware"
	"github.com/inkdesk/commission-api/models"
	"github.com/inkdesk/commission-api/services"
	"github.com/inkdesk/commission-api/utils"
	"github.com/rs/zerolog/log"
)

// parseID reads a positive integer path parameter
func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, "INVALID_ID", "The "+param+" must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// currentUser returns the authenticated user loaded by the role middleware
func currentUser(c *gin.Context) (*models.User, bool) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}
	return user, true
}

// respondServiceError maps service errors onto the error envelope. notFoundCode
// names the missing resource, e.g. ORDER_NOT_FOUND.
func respondServiceError(c *gin.Context, err error, notFoundCode string) {
	var stateErr *services.StateError
	var validationErr *services.ValidationError
	var uploadErr *utils.FileUploadError

	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.RespondError(c, http.StatusNotFound, notFoundCode, "The requested resource was not found")
	case errors.As(err, &stateErr):
		if stateErr.Warning {
			utils.RespondWarning(c, http.StatusConflict, stateErr.Code, stateErr.Message)
			return
		}
		utils.RespondError(c, http.StatusConflict, stateErr.Code, stateErr.Message)
	case errors.As(err, &validationErr):
		utils.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Message)
	case errors.As(err, &uploadErr):
		utils.RespondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		utils.RespondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	}
}

// uploadFile stores the multipart file in field under category. A missing file
// yields (nil, true) unless required.
func uploadFile(c *gin.Context, field string, category utils.Category, required bool) (*string, bool) {
	fileHeader, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || (err == nil && fileHeader == nil) {
		if required {
			utils.RespondError(c, http.StatusBadRequest, "FILE_REQUIRED", "The "+field+" file is required")
			return nil, false
		}
		return nil, true
	}
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "INVALID_FILE", "Could not read the "+field+" file")
		return nil, false
	}

	return storeUpload(c, category, fileHeader)
}

func storeUpload(c *gin.Context, category utils.Category, fileHeader *multipart.FileHeader) (*string, bool) {
	attachments := services.GetAttachmentService()
	if attachments == nil {
		utils.RespondError(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "File storage is not configured")
		return nil, false
	}

	key, err := attachments.Upload(c.Request.Context(), category, fileHeader)
	if err != nil {
		respondServiceError(c, err, "FILE_NOT_FOUND")
		return nil, false
	}
	return &key, true
}

// discardUpload removes a stored file when the request it belonged to failed
func discardUpload(ctx context.Context, key *string) {
	if key != nil {
		services.DeleteAttachments(ctx, *key)
	}
}

func decorateOrder(ctx context.Context, order *models.Order) {
	order.BriefURL = services.ResolveOptionalURL(ctx, order.BriefKey)
	if order.Payment != nil {
		decoratePayment(ctx, order.Payment)
	}
	for i := range order.Progress {
		order.Progress[i].ImageURL = services.ResolveURL(ctx, order.Progress[i].ImageKey)
	}
	for i := range order.Messages {
		decorateMessage(ctx, &order.Messages[i])
	}
}

func decoratePayment(ctx context.Context, payment *models.Payment) {
	payment.ProofURL = services.ResolveURL(ctx, payment.ProofKey)
}

func decorateMessage(ctx context.Context, message *models.Message) {
	message.ImageURL = services.ResolveOptionalURL(ctx, message.ImageKey)
}

func decorateSample(ctx context.Context, sample *models.Sample) {
	sample.ImageURL = services.ResolveURL(ctx, sample.ImageKey)
}

func decorateProfile(ctx context.Context, profile *models.ArtistProfile) {
	profile.AvatarURL = services.ResolveOptionalURL(ctx, profile.AvatarKey)
	profile.BankQRURL = services.ResolveOptionalURL(ctx, profile.BankQRKey)
}
