package models

import "time"

// TermsOfService is one version of the policy text; at most one row is active
type TermsOfService struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Version     string    `gorm:"size:20;uniqueIndex;not null" json:"version"`
	IsActive    bool      `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedByID *uint     `json:"updated_by_id"`
	UpdatedBy   *User     `gorm:"foreignKey:UpdatedByID" json:"updated_by,omitempty"`
}

// TableName specifies the table name for the TermsOfService model
func (TermsOfService) TableName() string {
	return "terms_of_services"
}
