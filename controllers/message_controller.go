package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkdesk/commission-api/config"
	"github.com/inkdesk/commission-api/models"
	"github.com/inkdesk/commission-api/services"
	"github.com/inkdesk/commission-api/utils"
)

// SendMessageRequest represents the multipart form for a chat message
type SendMessageRequest struct {
	Content string `form:"content" binding:"max=5000"`
}

// SendMessage handles POST /api/v1/{customer,artist}/orders/:id/messages.
// A message with neither content nor image is accepted and ignored (204).
func SendMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.RespondValidationError(c, http.StatusBadRequest, err)
		return
	}

	// Customers may only write on their own orders
	if user.Role == models.RoleCustomer {
		if _, err := orderService().GetOwned(c.Request.Context(), user.ID, id); err != nil {
			respondServiceError(c, err, "ORDER_NOT_FOUND")
			return
		}
	}

	imageKey, ok := uploadFile(c, "image", utils.CategoryMessage, false)
	if !ok {
		return
	}

	message, err := services.NewMessageService(config.GetDB()).Send(c.Request.Context(), id, user, services.MessageInput{
		Content:  req.Content,
		ImageKey: imageKey,
	})
	if err != nil {
		discardUpload(c.Request.Context(), imageKey)
		respondServiceError(c, err, "ORDER_NOT_FOUND")
		return
	}
	if message == nil {
		c.Status(http.StatusNoContent)
		return
	}

	decorateMessage(c.Request.Context(), message)
	utils.RespondSuccess(c, http.StatusCreated, message)
}
