package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkdesk/commission-api/config"
	"github.com/inkdesk/commission-api/models"
	"github.com/inkdesk/commission-api/services"
	"github.com/inkdesk/commission-api/utils"
)

// SubmitPaymentRequest represents the multipart form for a payment proof
type SubmitPaymentRequest struct {
	Amount        int64  `form:"amount" binding:"required,gt=0"`
	TransactionID string `form:"transaction_id" binding:"max=100"`
}

// VerifyPaymentRequest represents the artist's decision on a payment
type VerifyPaymentRequest struct {
	Decision  string `json:"decision" binding:"required,oneof=verify reject"`
	AdminNote string `json:"admin_note" binding:"max=2000"`
}

// SubmitPayment handles POST /api/v1/customer/orders/:id/payment (multipart with proof_image)
func SubmitPayment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req SubmitPaymentRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.RespondValidationError(c, http.StatusBadRequest, err)
		return
	}

	// Check the order state before storing the proof
	order, err := orderService().GetOwned(c.Request.Context(), user.ID, id)
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND")
		return
	}
	if order.Status != models.OrderApproved {
		respondServiceError(c, services.ErrOrderNotApproved, "ORDER_NOT_FOUND")
		return
	}
	if order.Payment != nil {
		respondServiceError(c, services.ErrPaymentExists, "ORDER_NOT_FOUND")
		return
	}

	proofKey, ok := uploadFile(c, "proof_image", utils.CategoryPayment, true)
	if !ok {
		return
	}

	payment, err := services.NewPaymentService(config.GetDB()).Submit(c.Request.Context(), user.ID, id, services.PaymentInput{
		Amount:        req.Amount,
		TransactionID: req.TransactionID,
		ProofKey:      *proofKey,
	})
	if err != nil {
		discardUpload(c.Request.Context(), proofKey)
		respondServiceError(c, err, "ORDER_NOT_FOUND")
		return
	}

	decoratePayment(c.Request.Context(), payment)
	utils.RespondSuccess(c, http.StatusCreated, payment)
}

// ListPayments handles GET /api/v1/artist/payments - pending queue plus recent verifications
func ListPayments(c *gin.Context) {
	queue, err := services.NewPaymentService(config.GetDB()).Queue(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "PAYMENT_NOT_FOUND")
		return
	}

	for i := range queue.Pending {
		decoratePayment(c.Request.Context(), &queue.Pending[i])
	}
	for i := range queue.RecentVerified {
		decoratePayment(c.Request.Context(), &queue.RecentVerified[i])
	}
	utils.RespondSuccess(c, http.StatusOK, queue)
}

// VerifyPayment handles POST /api/v1/artist/payments/:id/verify
func VerifyPayment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, http.StatusBadRequest, err)
		return
	}

	payment, err := services.NewPaymentService(config.GetDB()).Decide(c.Request.Context(), id, user.ID, services.PaymentDecision{
		Verify:    req.Decision == "verify",
		AdminNote: req.AdminNote,
	})
	if err != nil {
		respondServiceError(c, err, "PAYMENT_NOT_FOUND")
		return
	}

	decoratePayment(c.Request.Context(), payment)
	utils.RespondSuccess(c, http.StatusOK, payment)
}

// GetPaymentQR handles GET /api/v1/customer/orders/:id/payment-qr - a PNG with the transfer details
func GetPaymentQR(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := orderService().GetOwned(c.Request.Context(), user.ID, id)
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND")
		return
	}

	profile, err := services.NewProfileService(config.GetDB()).ArtistProfile(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "ARTIST_NOT_FOUND")
		return
	}

	png, err := services.PaymentQR(profile, order)
	if err != nil {
		respondServiceError(c, err, "ORDER_NOT_FOUND")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
