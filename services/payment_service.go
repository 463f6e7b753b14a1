package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/inkdesk/commission-api/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// recentVerifiedLimit caps the verified payments shown beside the pending queue
const recentVerifiedLimit = 20

// PaymentInput is the customer's payment proof form; ProofKey is already stored
type PaymentInput struct {
	Amount        int64
	TransactionID string
	ProofKey      string
}

// PaymentDecision is the artist's verify/reject form
type PaymentDecision struct {
	Verify    bool
	AdminNote string
}

// PaymentQueue is the artist's payments view
type PaymentQueue struct {
	Pending        []models.Payment `json:"pending"`
	RecentVerified []models.Payment `json:"recent_verified"`
}

// PaymentService handles payment proofs and their verification
type PaymentService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB) *PaymentService {
	return &PaymentService{db: db, now: time.Now}
}

// Submit records the payment proof for an approved order owned by customerID.
// An order accepts a single payment.
func (s *PaymentService) Submit(ctx context.Context, customerID, orderID uint, input PaymentInput) (*models.Payment, error) {
	payment := &models.Payment{
		OrderID:       orderID,
		Amount:        input.Amount,
		TransactionID: strings.TrimSpace(input.TransactionID),
		ProofKey:      input.ProofKey,
		Status:        models.PaymentPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("customer_id = ?", customerID).First(&order, orderID).Error; err != nil {
			return notFound(err)
		}
		if order.Status != models.OrderApproved {
			return ErrOrderNotApproved
		}

		var existing int64
		if err := tx.Model(&models.Payment{}).Where("order_id = ?", orderID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrPaymentExists
		}

		payment.CreatedAt = s.now()
		return tx.Create(payment).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrPaymentExists
		}
		return nil, err
	}

	log.Info().Uint("order_id", orderID).Int64("amount", payment.Amount).Msg("payment proof submitted")
	return payment, nil
}

// Decide verifies or rejects a pending payment. Verification also moves an
// approved order to paid in the same transaction.
func (s *PaymentService) Decide(ctx context.Context, paymentID, artistID uint, decision PaymentDecision) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, paymentID).Error; err != nil {
			return notFound(err)
		}
		if payment.Status.Terminal() {
			return ErrPaymentDecided
		}

		status := models.PaymentRejected
		if decision.Verify {
			status = models.PaymentVerified
		}

		now := s.now()
		result := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, models.PaymentPending).
			Updates(map[string]interface{}{
				"status":         status,
				"verified_at":    now,
				"verified_by_id": artistID,
				"admin_note":     decision.AdminNote,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPaymentDecided
		}

		if !decision.Verify {
			return nil
		}

		var order models.Order
		if err := tx.Select("id", "status").First(&order, payment.OrderID).Error; err != nil {
			return notFound(err)
		}
		if !models.CanTransition(models.ActionPaymentVerified, order.Status, models.OrderPaid) {
			log.Warn().Uint("order_id", order.ID).Str("status", string(order.Status)).
				Msg("payment verified for an order that is no longer approved, order status kept")
			return nil
		}
		return tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderApproved).
			Updates(map[string]interface{}{"status": models.OrderPaid, "updated_at": now}).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("Order.Customer").Preload("Order.ServiceType").First(&payment, paymentID).Error; err != nil {
		return nil, err
	}
	if payment.Order != nil {
		notifyPaymentDecision(ctx, payment.Order, &payment)
	}
	return &payment, nil
}

// Queue returns pending payments oldest first and the most recent verified ones
func (s *PaymentService) Queue(ctx context.Context) (*PaymentQueue, error) {
	db := s.db.WithContext(ctx)
	queue := &PaymentQueue{}

	err := db.Preload("Order.Customer").Preload("Order.ServiceType").
		Where("status = ?", models.PaymentPending).
		Order("created_at ASC, id ASC").
		Find(&queue.Pending).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load pending payments: %w", err)
	}

	err = db.Preload("Order.Customer").Preload("Order.ServiceType").
		Where("status = ?", models.PaymentVerified).
		Order("verified_at DESC, id DESC").
		Limit(recentVerifiedLimit).
		Find(&queue.RecentVerified).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load verified payments: %w", err)
	}

	return queue, nil
}
