package models

import "time"

// PaymentStatus is the verification state of a payment proof
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

// Terminal reports whether no further decision can be made on the payment
func (s PaymentStatus) Terminal() bool {
	return s == PaymentVerified || s == PaymentRejected
}

// Payment is the customer's proof of transfer for an approved order
type Payment struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderID       uint          `gorm:"uniqueIndex;not null" json:"order_id"`
	Order         *Order        `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Amount        int64         `gorm:"not null" json:"amount"`
	TransactionID string        `gorm:"size:100" json:"transaction_id"`
	ProofKey      string        `gorm:"not null" json:"proof_key"`
	ProofURL      *string       `gorm:"-" json:"proof_url,omitempty"`
	Status        PaymentStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	AdminNote     string        `gorm:"type:text" json:"admin_note"`
	VerifiedAt    *time.Time    `json:"verified_at"`
	VerifiedByID  *uint         `json:"verified_by_id"`
	CreatedAt     time.Time     `json:"created_at"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
