package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkdesk/commission-api/config"
	"github.com/inkdesk/commission-api/models"
	"github.com/inkdesk/commission-api/services"
	"github.com/inkdesk/commission-api/utils"
	"github.com/rs/zerolog/log"
)

// CreateOrderRequest represents the multipart form for placing an order
type CreateOrderRequest struct {
	ServiceTypeID uint   `form:"service_type_id" binding:"required"`
	Description   string `form:"description" binding:"required,max=5000"`
}

// ApproveOrderRequest represents the artist's decision on a pending order
type ApproveOrderRequest struct {
	Approve   *bool  `json:"approve" binding:"required"`
	Price     *int64 `json:"price" binding:"omitempty,gte=0"`
	AdminNote string `json:"admin_note" binding:"max=2000"`
}

// UpdateStatusRequest represents a manual status change
type UpdateStatusRequest struct {
	Status    string `json:"status" binding:"required,manual_status"`
	AdminNote string `json:"admin_note" binding:"max=2000"`
}

// ProgressRequest represents the multipart form for a progress update
type ProgressRequest struct {
	Note    string `form:"note" binding:"max=2000"`
	IsFinal bool   `form:"is_final"`
}

// OrderDetail is the order detail payload. Customers also get the transfer
// reference and bank details.
type OrderDetail struct {
	Order            *models.Order         `json:"order"`
	PaymentReference string                `json:"payment_reference"`
	BankDetails      *models.ArtistProfile `json:"bank_details,omitempty"`
}

func orderService() *services.OrderService {
	return services.NewOrderService(config.GetDB())
}

// CreateOrder handles POST /api/v1/customer/orders - places a pending order
func CreateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.RespondValidationError(c, http.StatusBadRequest, err)
		return
	}

	briefKey, ok := uploadFile(c, "brief_file", utils.CategoryBrief, false)
	if !ok {
		return
	}

	order, err := orderService().Create(c.Request.Context(), user.ID, services.CreateOrderInput{
		ServiceTypeID: req.ServiceTypeID,
		Description:   req.Description,
		BriefKey:      briefKey,
	})
	if err != nil {
		discardUpload(c.Request.Context(), briefKey)
		respondServiceError(c, err, "SERVICE_TYPE_NOT_FOUND")
		return
	}

	decorateOrder(c.Request.Context(), order)
	utils.RespondSuccess(c, http.StatusCreated, order)
}

// GetOrder handles GET /api/v1/{customer,artist}/orders/:id. Viewing marks the
// other party's messages as read.
func GetOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := orderService().Detail(c.Request.Context(), user, id)
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND")
		return
	}
	decorateOrder(c.Request.Context(), order)

	detail := OrderDetail{Order: order, PaymentReference: order.ShortOrderNo()}
	if user.Role == models.RoleCustomer {
		profile, err := services.NewProfileService(config.GetDB()).ArtistProfile(c.Request.Context())
		if err != nil {
			log.Warn().Err(err).Msg("artist profile unavailable for order detail")
		} else {
			decorateProfile(c.Request.Context(), profile)
			detail.BankDetails = profile
		}
	}

	utils.RespondSuccess(c, http.StatusOK, detail)
}

// CustomerDashboard handles GET /api/v1/customer/dashboard
func CustomerDashboard(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	dashboard, err := orderService().CustomerDashboard(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND")
		return
	}

	utils.RespondSuccess(c, http.StatusOK, dashboard)
}

// ArtistDashboard handles GET /api/v1/artist/dashboard
func ArtistDashboard(c *gin.Context) {
	dashboard, err := orderService().ArtistDashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND")
		return
	}

	utils.RespondSuccess(c, http.StatusOK, dashboard)
}

// ArtistInbox handles GET /api/v1/artist/messages - orders with unread customer messages
func ArtistInbox(c *gin.Context) {
	orders, err := orderService().Inbox(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND")
		return
	}

	utils.RespondSuccess(c, http.StatusOK, orders)
}

// ListOrders handles GET /api/v1/artist/orders?status=
func ListOrders(c *gin.Context) {
	status := c.DefaultQuery("status", "all")

	orders, err := orderService().List(c.Request.Context(), status)
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND")
		return
	}

	utils.RespondSuccess(c, http.StatusOK, gin.H{
		"orders":        orders,
		"status_filter": status,
	})
}

// DeleteOrder handles DELETE /api/v1/artist/orders/:id - removes the order and everything it owns
func DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := orderService().Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND")
		return
	}

	c.Status(http.StatusNoContent)
}

// ApproveOrder handles POST /api/v1/artist/orders/:id/approve - approves or rejects a pending order
func ApproveOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ApproveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, http.StatusBadRequest, err)
		return
	}

	order, err := orderService().Decide(c.Request.Context(), id, services.DecisionInput{
		Approve:   *req.Approve,
		Price:     req.Price,
		AdminNote: req.AdminNote,
	})
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND")
		return
	}

	decorateOrder(c.Request.Context(), order)
	utils.RespondSuccess(c, http.StatusOK, order)
}

// UpdateOrderStatus handles POST /api/v1/artist/orders/:id/status
func UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, http.StatusBadRequest, err)
		return
	}

	order, err := orderService().UpdateStatus(c.Request.Context(), id, models.OrderStatus(req.Status), req.AdminNote)
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND")
		return
	}

	decorateOrder(c.Request.Context(), order)
	utils.RespondSuccess(c, http.StatusOK, order)
}

// AddOrderProgress handles POST /api/v1/artist/orders/:id/progress (multipart with an image file)
func AddOrderProgress(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ProgressRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.RespondValidationError(c, http.StatusBadRequest, err)
		return
	}

	imageKey, ok := uploadFile(c, "image", utils.CategoryProgress, true)
	if !ok {
		return
	}

	progress, err := orderService().AddProgress(c.Request.Context(), id, user.ID, services.ProgressInput{
		ImageKey: *imageKey,
		Note:     req.Note,
		IsFinal:  req.IsFinal,
	})
	if err != nil {
		discardUpload(c.Request.Context(), imageKey)
		respondServiceError(c, err, "ORDER_NOT_FOUND")
		return
	}

	progress.ImageURL = services.ResolveURL(c.Request.Context(), progress.ImageKey)
	utils.RespondSuccess(c, http.StatusCreated, progress)
}

// ListCustomers handles GET /api/v1/artist/customers - the customer roster with totals
func ListCustomers(c *gin.Context) {
	roster, err := orderService().Customers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "CUSTOMER_NOT_FOUND")
		return
	}

	utils.RespondSuccess(c, http.StatusOK, roster)
}
