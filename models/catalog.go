package models

import "time"

// ServiceType is a commission offering with a fixed list price
type ServiceType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Slug        string    `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Price       int64     `gorm:"not null;check:price >= 0" json:"price"`
	IsActive    bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for the ServiceType model
func (ServiceType) TableName() string {
	return "service_types"
}

// Sample is a portfolio image shown on the public catalog
type Sample struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	ServiceTypeID uint        `gorm:"not null;index" json:"service_type_id"`
	ServiceType   ServiceType `gorm:"foreignKey:ServiceTypeID" json:"service_type"`
	Title         string      `gorm:"size:200;not null" json:"title"`
	ImageKey      string      `gorm:"not null" json:"image_key"`
	ImageURL      *string     `gorm:"-" json:"image_url,omitempty"`
	Description   string      `gorm:"type:text" json:"description"`
	DisplayOrder  int         `gorm:"not null;default:0;index" json:"display_order"`
	CreatedAt     time.Time   `json:"created_at"`
}

// TableName specifies the table name for the Sample model
func (Sample) TableName() string {
	return "samples"
}

// SampleOrdering is the stable listing order for samples
const SampleOrdering = "samples.display_order ASC, samples.created_at DESC, samples.id DESC"
