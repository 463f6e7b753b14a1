package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/inkdesk/commission-api/config"
	"github.com/inkdesk/commission-api/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxOrderNoAttempts bounds retries after an order_no unique violation
const maxOrderNoAttempts = 3

// CreateOrderInput is the customer's order form; BriefKey is already stored
type CreateOrderInput struct {
	ServiceTypeID uint
	Description   string
	BriefKey      *string
}

// DecisionInput is the artist's approve/reject form
type DecisionInput struct {
	Approve   bool
	Price     *int64
	AdminNote string
}

// ProgressInput is a production update; ImageKey is already stored
type ProgressInput struct {
	ImageKey string
	Note     string
	IsFinal  bool
}

// OrderSummary is an order with the number of messages its viewer has not read
type OrderSummary struct {
	models.Order
	UnreadCount int64 `json:"unread_count"`
}

// CustomerDashboard is the customer's landing data
type CustomerDashboard struct {
	Orders         []OrderSummary `json:"orders"`
	CompletedCount int64          `json:"completed_count"`
	UnreadMessages int64          `json:"unread_messages"`
}

// ArtistDashboard is the artist's landing data
type ArtistDashboard struct {
	PendingOrders    int64          `json:"pending_orders"`
	PendingPayments  int64          `json:"pending_payments"`
	InProgressOrders int64          `json:"in_progress_orders"`
	RecentOrders     []OrderSummary `json:"recent_orders"`
	UnreadMessages   int64          `json:"unread_messages"`
}

// CustomerSummary is one row of the artist's customer roster
type CustomerSummary struct {
	User            models.User `json:"user"`
	TotalOrders     int64       `json:"total_orders"`
	CompletedOrders int64       `json:"completed_orders"`
	TotalSpent      int64       `json:"total_spent"`
}

// OrderService owns the order lifecycle
type OrderService struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

// NewOrderService creates a new order service using the configured time zone
func NewOrderService(db *gorm.DB) *OrderService {
	loc := time.UTC
	if cfg := config.GetConfig(); cfg != nil {
		loc = cfg.Location()
	}
	return &OrderService{db: db, loc: loc, now: time.Now}
}

// WithClock replaces the time source (used by tests)
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// WithLocation replaces the time zone order numbers are dated in
func (s *OrderService) WithLocation(loc *time.Location) *OrderService {
	s.loc = loc
	return s
}

// Create places a pending order at the current service price and assigns the
// next order number for today
func (s *OrderService) Create(ctx context.Context, customerID uint, input CreateOrderInput) (*models.Order, error) {
	var service models.ServiceType
	if err := s.db.WithContext(ctx).First(&service, input.ServiceTypeID).Error; err != nil {
		return nil, notFound(err)
	}
	if !service.IsActive {
		return nil, ErrServiceUnavailable
	}

	var order *models.Order
	for attempt := 1; ; attempt++ {
		order = &models.Order{
			CustomerID:    customerID,
			ServiceTypeID: service.ID,
			Description:   strings.TrimSpace(input.Description),
			BriefKey:      input.BriefKey,
			Status:        models.OrderPending,
			Price:         service.Price,
		}

		resync := attempt > 1
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			now := s.now()
			orderNo, err := nextOrderNo(tx, now.In(s.loc), resync)
			if err != nil {
				return err
			}
			order.OrderNo = orderNo
			order.CreatedAt = now
			order.UpdatedAt = now
			return tx.Create(order).Error
		})
		if err == nil {
			break
		}
		if isUniqueViolation(err) && attempt < maxOrderNoAttempts {
			log.Warn().Err(err).Int("attempt", attempt).Msg("order number collision, retrying")
			continue
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	order.ServiceType = service
	log.Info().Str("order_no", order.OrderNo).Uint("customer_id", customerID).Msg("order created")
	return order, nil
}

// nextOrderNo increments the day's counter and formats the order number. The
// upsert takes the counter row lock, so concurrent transactions serialize on it.
// With resync the counter is first raised past any order number already issued
// for the day.
func nextOrderNo(tx *gorm.DB, day time.Time, resync bool) (string, error) {
	seqDate := day.Format("20060102")

	if resync {
		if err := resyncSequence(tx, day); err != nil {
			return "", err
		}
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "seq_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_seq": gorm.Expr("order_sequences.last_seq + 1")}),
	}).Create(&models.OrderSequence{SeqDate: seqDate, LastSeq: 1}).Error
	if err != nil {
		return "", fmt.Errorf("failed to advance order sequence: %w", err)
	}

	var seq models.OrderSequence
	if err := tx.Where("seq_date = ?", seqDate).First(&seq).Error; err != nil {
		return "", fmt.Errorf("failed to read order sequence: %w", err)
	}

	return models.FormatOrderNo(day, seq.LastSeq), nil
}

func resyncSequence(tx *gorm.DB, day time.Time) error {
	prefix := models.FormatOrderNo(day, 0)
	prefix = prefix[:strings.LastIndex(prefix, "-")+1]

	var latest string
	err := tx.Model(&models.Order{}).
		Where("order_no LIKE ?", prefix+"%").
		Select("COALESCE(MAX(order_no), '')").
		Scan(&latest).Error
	if err != nil || latest == "" {
		return err
	}

	issued, err := strconv.ParseInt(strings.TrimPrefix(latest, prefix), 10, 64)
	if err != nil {
		return nil
	}

	seqDate := day.Format("20060102")
	err = tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.OrderSequence{SeqDate: seqDate, LastSeq: issued}).Error
	if err != nil {
		return err
	}
	return tx.Model(&models.OrderSequence{}).
		Where("seq_date = ? AND last_seq < ?", seqDate, issued).
		Update("last_seq", issued).Error
}

func (s *OrderService) preloaded(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Customer").
		Preload("ServiceType").
		Preload("Payment").
		Preload("Progress", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_progress.created_at DESC, order_progress.id DESC")
		}).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.created_at ASC, messages.id ASC")
		}).
		Preload("Messages.Sender")
}

// Get loads an order with its payment, progress and messages
func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.preloaded(ctx).First(&order, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// GetOwned loads an order only when it belongs to customerID
func (s *OrderService) GetOwned(ctx context.Context, customerID, id uint) (*models.Order, error) {
	var order models.Order
	err := s.preloaded(ctx).Where("orders.customer_id = ?", customerID).First(&order, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// Detail loads an order for viewer and marks the counterpart's messages read.
// Customers only see their own orders.
func (s *OrderService) Detail(ctx context.Context, viewer *models.User, id uint) (*models.Order, error) {
	var owned models.Order
	query := s.db.WithContext(ctx).Select("id", "customer_id")
	if viewer.Role == models.RoleCustomer {
		query = query.Where("customer_id = ?", viewer.ID)
	}
	if err := query.First(&owned, id).Error; err != nil {
		return nil, notFound(err)
	}

	if _, err := markMessagesRead(s.db.WithContext(ctx), id, viewer.Role.Counterpart()); err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// List returns orders newest first, optionally filtered by status ("" or "all"
// lists everything)
func (s *OrderService) List(ctx context.Context, status string) ([]models.Order, error) {
	query := s.db.WithContext(ctx).Preload("Customer").Preload("ServiceType")

	if status != "" && status != "all" {
		if !models.OrderStatus(status).Valid() {
			return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("Unknown order status %q", status)}
		}
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	err := query.Order("created_at DESC, id DESC").Find(&orders).Error
	return orders, err
}

// Decide approves or rejects a pending order
func (s *OrderService) Decide(ctx context.Context, id uint, input DecisionInput) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("ServiceType").First(&order, id).Error; err != nil {
			return notFound(err)
		}

		action, target := models.ActionReject, models.OrderCancelled
		if input.Approve {
			action, target = models.ActionApprove, models.OrderApproved
		}
		if !models.CanTransition(action, order.Status, target) {
			return transitionError(string(action), string(order.Status), string(target))
		}

		updates := map[string]interface{}{
			"status":     target,
			"admin_note": input.AdminNote,
			"updated_at": s.now(),
		}
		if input.Approve {
			price := order.Price
			if input.Price != nil {
				price = *input.Price
			}
			if price < 0 {
				return &ValidationError{Field: "price", Message: "Price cannot be negative"}
			}
			updates["price"] = price
			updates["approved_at"] = s.now()
		}

		return guardedUpdate(tx, &order, updates, string(action), target)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	notifyOrderDecision(ctx, updated)
	return updated, nil
}

// UpdateStatus applies a manual status change chosen by the artist
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus, adminNote string) (*models.Order, error) {
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("Unknown order status %q", status)}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, id).Error; err != nil {
			return notFound(err)
		}
		if !models.CanTransition(models.ActionManual, order.Status, status) {
			return transitionError("move", string(order.Status), string(status))
		}

		now := s.now()
		updates := map[string]interface{}{
			"status":     status,
			"admin_note": adminNote,
			"updated_at": now,
		}
		if status == models.OrderCompleted {
			updates["completed_at"] = now
		}
		return guardedUpdate(tx, &order, updates, "move", status)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	notifyStatusChange(ctx, updated)
	return updated, nil
}

// guardedUpdate writes updates only if the order still has the status it was
// read with; a concurrent change surfaces as a transition error
func guardedUpdate(tx *gorm.DB, order *models.Order, updates map[string]interface{}, action string, target models.OrderStatus) error {
	result := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var current models.Order
		if err := tx.Select("status").First(&current, order.ID).Error; err != nil {
			return notFound(err)
		}
		return transitionError(action, string(current.Status), string(target))
	}
	return nil
}

// AddProgress records a production update on an order
func (s *OrderService) AddProgress(ctx context.Context, orderID, artistID uint, input ProgressInput) (*models.OrderProgress, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Select("id").First(&order, orderID).Error; err != nil {
		return nil, notFound(err)
	}

	progress := &models.OrderProgress{
		OrderID:     orderID,
		ImageKey:    input.ImageKey,
		Note:        strings.TrimSpace(input.Note),
		IsFinal:     input.IsFinal,
		CreatedAt:   s.now(),
		CreatedByID: &artistID,
	}
	if err := s.db.WithContext(ctx).Create(progress).Error; err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}
	return progress, nil
}

// Delete removes an order with its payment, progress and messages, then their
// attachments
func (s *OrderService) Delete(ctx context.Context, id uint) error {
	var keys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("Payment").Preload("Progress").Preload("Messages").First(&order, id).Error; err != nil {
			return notFound(err)
		}

		keys = attachmentKeys(&order)

		if err := tx.Where("order_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, id).Error
	})
	if err != nil {
		return err
	}

	DeleteAttachments(ctx, keys...)
	log.Info().Uint("order_id", id).Msg("order deleted")
	return nil
}

func attachmentKeys(order *models.Order) []string {
	var keys []string
	if order.BriefKey != nil {
		keys = append(keys, *order.BriefKey)
	}
	if order.Payment != nil {
		keys = append(keys, order.Payment.ProofKey)
	}
	for _, p := range order.Progress {
		keys = append(keys, p.ImageKey)
	}
	for _, m := range order.Messages {
		if m.ImageKey != nil {
			keys = append(keys, *m.ImageKey)
		}
	}
	return keys
}

// CustomerDashboard lists the customer's orders with unread artist messages
func (s *OrderService) CustomerDashboard(ctx context.Context, customerID uint) (*CustomerDashboard, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("ServiceType").
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	summaries, err := summarize(s.db.WithContext(ctx), orders, models.RoleArtist)
	if err != nil {
		return nil, err
	}

	dashboard := &CustomerDashboard{Orders: summaries}
	for _, summary := range summaries {
		if summary.Status == models.OrderCompleted {
			dashboard.CompletedCount++
		}
		dashboard.UnreadMessages += summary.UnreadCount
	}
	return dashboard, nil
}

// ArtistDashboard counts the work queues and lists the ten newest orders
func (s *OrderService) ArtistDashboard(ctx context.Context) (*ArtistDashboard, error) {
	db := s.db.WithContext(ctx)
	dashboard := &ArtistDashboard{}

	if err := db.Model(&models.Order{}).Where("status = ?", models.OrderPending).Count(&dashboard.PendingOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Payment{}).Where("status = ?", models.PaymentPending).Count(&dashboard.PendingPayments).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).Where("status = ?", models.OrderInProgress).Count(&dashboard.InProgressOrders).Error; err != nil {
		return nil, err
	}

	var recent []models.Order
	err := db.Preload("Customer").Preload("ServiceType").
		Order("created_at DESC, id DESC").
		Limit(10).
		Find(&recent).Error
	if err != nil {
		return nil, err
	}
	if dashboard.RecentOrders, err = summarize(db, recent, models.RoleCustomer); err != nil {
		return nil, err
	}

	if dashboard.UnreadMessages, err = unreadTotal(db, models.RoleCustomer, nil); err != nil {
		return nil, err
	}
	return dashboard, nil
}

// Inbox lists orders with unread customer messages, most recently updated first
func (s *OrderService) Inbox(ctx context.Context) ([]OrderSummary, error) {
	db := s.db.WithContext(ctx)

	var orderIDs []uint
	err := db.Model(&models.Message{}).
		Distinct("messages.order_id").
		Joins("JOIN users ON users.id = messages.sender_id").
		Where("messages.is_read = ? AND users.role = ?", false, models.RoleCustomer).
		Pluck("messages.order_id", &orderIDs).Error
	if err != nil {
		return nil, err
	}
	if len(orderIDs) == 0 {
		return []OrderSummary{}, nil
	}

	var orders []models.Order
	err = db.Preload("Customer").Preload("ServiceType").
		Where("id IN ?", orderIDs).
		Order("updated_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return summarize(db, orders, models.RoleCustomer)
}

// Customers returns every customer with order totals. Spending counts completed
// orders only.
func (s *OrderService) Customers(ctx context.Context) ([]CustomerSummary, error) {
	db := s.db.WithContext(ctx)

	var users []models.User
	if err := db.Where("role = ?", models.RoleCustomer).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}

	type totals struct {
		CustomerID      uint
		TotalOrders     int64
		CompletedOrders int64
		TotalSpent      int64
	}
	var rows []totals
	err := db.Model(&models.Order{}).
		Select(`customer_id,
			COUNT(*) AS total_orders,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed_orders,
			COALESCE(SUM(CASE WHEN status = ? THEN price ELSE 0 END), 0) AS total_spent`,
			models.OrderCompleted, models.OrderCompleted).
		Group("customer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byCustomer := make(map[uint]totals, len(rows))
	for _, row := range rows {
		byCustomer[row.CustomerID] = row
	}

	roster := make([]CustomerSummary, 0, len(users))
	for _, user := range users {
		t := byCustomer[user.ID]
		roster = append(roster, CustomerSummary{
			User:            user,
			TotalOrders:     t.TotalOrders,
			CompletedOrders: t.CompletedOrders,
			TotalSpent:      t.TotalSpent,
		})
	}
	return roster, nil
}

// summarize attaches per-order unread counts for messages sent by senderRole
func summarize(db *gorm.DB, orders []models.Order, senderRole models.Role) ([]OrderSummary, error) {
	ids := make([]uint, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}

	counts, err := unreadCounts(db, ids, senderRole)
	if err != nil {
		return nil, err
	}

	summaries := make([]OrderSummary, 0, len(orders))
	for _, order := range orders {
		summaries = append(summaries, OrderSummary{Order: order, UnreadCount: counts[order.ID]})
	}
	return summaries, nil
}
