package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkdesk/commission-api/config"
	"github.com/inkdesk/commission-api/services"
	"github.com/inkdesk/commission-api/utils"
)

// UpdateProfileRequest represents the multipart form for the artist profile
type UpdateProfileRequest struct {
	Bio               string `form:"bio" binding:"max=5000"`
	BankName          string `form:"bank_name" binding:"max=100"`
	BankAccountNumber string `form:"bank_account_number" binding:"max=50"`
	BankAccountName   string `form:"bank_account_name" binding:"max=100"`
}

// GetProfile handles GET /api/v1/artist/profile - created empty on first access
func GetProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := services.NewProfileService(config.GetDB()).GetOrCreate(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err, "PROFILE_NOT_FOUND")
		return
	}

	decorateProfile(c.Request.Context(), profile)
	utils.RespondSuccess(c, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/v1/artist/profile (multipart with optional avatar and bank_qr files)
func UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.RespondValidationError(c, http.StatusBadRequest, err)
		return
	}

	avatarKey, ok := uploadFile(c, "avatar", utils.CategoryAvatar, false)
	if !ok {
		return
	}
	qrKey, ok := uploadFile(c, "bank_qr", utils.CategoryQRCode, false)
	if !ok {
		discardUpload(c.Request.Context(), avatarKey)
		return
	}

	profile, err := services.NewProfileService(config.GetDB()).Update(c.Request.Context(), user.ID, services.ProfileInput{
		Bio:               req.Bio,
		BankName:          req.BankName,
		BankAccountNumber: req.BankAccountNumber,
		BankAccountName:   req.BankAccountName,
		AvatarKey:         avatarKey,
		BankQRKey:         qrKey,
	})
	if err != nil {
		discardUpload(c.Request.Context(), avatarKey)
		discardUpload(c.Request.Context(), qrKey)
		respondServiceError(c, err, "PROFILE_NOT_FOUND")
		return
	}

	decorateProfile(c.Request.Context(), profile)
	utils.RespondSuccess(c, http.StatusOK, profile)
}
