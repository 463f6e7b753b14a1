package models

import "time"

// Message represents a message in an order conversation
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	SenderID  uint      `gorm:"not null;index" json:"sender_id"`
	Sender    User      `gorm:"foreignKey:SenderID" json:"sender"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	ImageKey  *string   `json:"image_key"`
	ImageURL  *string   `gorm:"-" json:"image_url,omitempty"`
	IsRead    bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// OrderProgress is a production update posted by the artist
type OrderProgress struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"not null;index" json:"order_id"`
	ImageKey    string    `gorm:"not null" json:"image_key"`
	ImageURL    *string   `gorm:"-" json:"image_url,omitempty"`
	Note        string    `gorm:"type:text" json:"note"`
	IsFinal     bool      `gorm:"not null;default:false" json:"is_final"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedByID *uint     `json:"created_by_id"`
}

// TableName specifies the table name for the OrderProgress model
func (OrderProgress) TableName() string {
	return "order_progress"
}
