package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/inkdesk/commission-api/models"
	"gorm.io/gorm"
)

// MessageInput is a chat message; ImageKey is already stored
type MessageInput struct {
	Content  string
	ImageKey *string
}

// MessageService manages the per-order conversation
type MessageService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMessageService creates a new message service
func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db, now: time.Now}
}

// Send appends a message to an order conversation. A message with neither text
// nor image is ignored and (nil, nil) is returned.
func (s *MessageService) Send(ctx context.Context, orderID uint, sender *models.User, input MessageInput) (*models.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" && input.ImageKey == nil {
		return nil, nil
	}

	message := &models.Message{
		OrderID:  orderID,
		SenderID: sender.ID,
		Content:  content,
		ImageKey: input.ImageKey,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Select("id").First(&order, orderID).Error; err != nil {
			return notFound(err)
		}

		now := s.now()
		message.CreatedAt = now
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}
		// the inbox is ordered by last activity
		return tx.Model(&models.Order{}).Where("id = ?", orderID).UpdateColumn("updated_at", now).Error
	})
	if err != nil {
		return nil, err
	}

	message.Sender = *sender
	return message, nil
}

// List returns an order's messages oldest first
func (s *MessageService) List(ctx context.Context, orderID uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Preload("Sender").
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// MarkRead marks every unread message that senderRole sent on the order as read
func (s *MessageService) MarkRead(ctx context.Context, orderID uint, senderRole models.Role) (int64, error) {
	return markMessagesRead(s.db.WithContext(ctx), orderID, senderRole)
}

// UnreadTotal counts unread messages sent by senderRole, limited to one
// customer's orders when customerID is set
func (s *MessageService) UnreadTotal(ctx context.Context, senderRole models.Role, customerID *uint) (int64, error) {
	return unreadTotal(s.db.WithContext(ctx), senderRole, customerID)
}

func markMessagesRead(db *gorm.DB, orderID uint, senderRole models.Role) (int64, error) {
	senders := db.Model(&models.User{}).Select("id").Where("role = ?", senderRole)

	result := db.Model(&models.Message{}).
		Where("order_id = ? AND is_read = ?", orderID, false).
		Where("sender_id IN (?)", senders).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func unreadCounts(db *gorm.DB, orderIDs []uint, senderRole models.Role) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(orderIDs))
	if len(orderIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		OrderID uint
		Unread  int64
	}
	err := db.Model(&models.Message{}).
		Select("messages.order_id AS order_id, COUNT(*) AS unread").
		Joins("JOIN users ON users.id = messages.sender_id").
		Where("messages.order_id IN ? AND messages.is_read = ? AND users.role = ?", orderIDs, false, senderRole).
		Group("messages.order_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.OrderID] = row.Unread
	}
	return counts, nil
}

func unreadTotal(db *gorm.DB, senderRole models.Role, customerID *uint) (int64, error) {
	query := db.Model(&models.Message{}).
		Joins("JOIN users ON users.id = messages.sender_id").
		Where("messages.is_read = ? AND users.role = ?", false, senderRole)
	if customerID != nil {
		query = query.Joins("JOIN orders ON orders.id = messages.order_id").
			Where("orders.customer_id = ?", *customerID)
	}

	var total int64
	err := query.Count(&total).Error
	return total, err
}
