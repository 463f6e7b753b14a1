package models

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of a commission order
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderApproved   OrderStatus = "approved"
	OrderPaid       OrderStatus = "paid"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order
var OrderStatuses = []OrderStatus{
	OrderPending, OrderApproved, OrderPaid, OrderInProgress, OrderCompleted, OrderCancelled,
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// OrderAction names the operation that moves an order between states
type OrderAction string

const (
	ActionApprove         OrderAction = "approve"
	ActionReject          OrderAction = "reject"
	ActionPaymentVerified OrderAction = "payment_verified"
	ActionManual          OrderAction = "manual"
)

type transitionRule struct {
	from []OrderStatus // nil means any state
	to   []OrderStatus
}

// orderTransitions is the complete transition table. The manual path accepts
// any source state, including orders with no verified payment.
var orderTransitions = map[OrderAction]transitionRule{
	ActionApprove:         {from: []OrderStatus{OrderPending}, to: []OrderStatus{OrderApproved}},
	ActionReject:          {from: []OrderStatus{OrderPending}, to: []OrderStatus{OrderCancelled}},
	ActionPaymentVerified: {from: []OrderStatus{OrderApproved}, to: []OrderStatus{OrderPaid}},
	ActionManual:          {from: nil, to: ManualStatuses},
}

// ManualStatuses are the targets the artist can pick on the status-update form
var ManualStatuses = []OrderStatus{OrderInProgress, OrderCompleted, OrderCancelled}

// CanTransition reports whether action may move an order from one status to another
func CanTransition(action OrderAction, from, to OrderStatus) bool {
	rule, ok := orderTransitions[action]
	if !ok {
		return false
	}
	if rule.from != nil && !containsStatus(rule.from, from) {
		return false
	}
	return containsStatus(rule.to, to)
}

func containsStatus(list []OrderStatus, s OrderStatus) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Order represents a commission request from a customer for one service type
type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderNo       string          `gorm:"size:20;uniqueIndex;not null" json:"order_no"`
	CustomerID    uint            `gorm:"not null;index" json:"customer_id"`
	Customer      User            `gorm:"foreignKey:CustomerID" json:"customer"`
	ServiceTypeID uint            `gorm:"not null;index" json:"service_type_id"`
	ServiceType   ServiceType     `gorm:"foreignKey:ServiceTypeID" json:"service_type"`
	Description   string          `gorm:"type:text;not null" json:"description"`
	BriefKey      *string         `json:"brief_key"`
	BriefURL      *string         `gorm:"-" json:"brief_url,omitempty"`
	Status        OrderStatus     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Price         int64           `gorm:"not null" json:"price"`
	AdminNote     string          `gorm:"type:text" json:"admin_note"`
	ApprovedAt    *time.Time      `json:"approved_at"`
	CompletedAt   *time.Time      `json:"completed_at"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Payment       *Payment        `gorm:"foreignKey:OrderID" json:"payment,omitempty"`
	Progress      []OrderProgress `gorm:"foreignKey:OrderID" json:"progress,omitempty"`
	Messages      []Message       `gorm:"foreignKey:OrderID" json:"messages,omitempty"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// ShortOrderNo returns the payment reference form of the order number
func (o Order) ShortOrderNo() string {
	return ShortOrderNo(o.OrderNo)
}

// OrderNoPrefix starts every generated order number
const OrderNoPrefix = "DH"

// FormatOrderNo renders DH-YYYYMMDD-NNNNN
func FormatOrderNo(day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%05d", OrderNoPrefix, day.Format("20060102"), seq)
}

// ShortOrderNo strips the date segment: DH-20250101-00023 becomes DH00023.
// Anything that is not exactly three dash separated segments is returned as is.
func ShortOrderNo(orderNo string) string {
	parts := strings.Split(orderNo, "-")
	if len(parts) != 3 {
		return orderNo
	}
	return OrderNoPrefix + parts[2]
}

// OrderSequence is the per-day counter behind order numbers
type OrderSequence struct {
	SeqDate string `gorm:"primaryKey;size:8"`
	LastSeq int64  `gorm:"not null"`
}

// TableName specifies the table name for the OrderSequence model
func (OrderSequence) TableName() string {
	return "order_sequences"
}
