package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the single permission axis of the system
type Role string

const (
	RoleArtist   Role = "artist"
	RoleCustomer Role = "customer"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleArtist || r == RoleCustomer
}

// Counterpart returns the role on the other side of an order conversation
func (r Role) Counterpart() Role {
	if r == RoleArtist {
		return RoleCustomer
	}
	return RoleArtist
}

// User represents an account in the system (artist or customer)
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"uniqueIndex;size:150;not null" json:"username"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Email        string         `gorm:"size:254" json:"email"`
	Phone        string         `gorm:"size:15" json:"phone"`
	Role         Role           `gorm:"size:10;not null;default:'customer';index" json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// ArtistProfile holds the artist's public bio and bank transfer details
type ArtistProfile struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User              User      `gorm:"foreignKey:UserID" json:"-"`
	Bio               string    `gorm:"type:text" json:"bio"`
	AvatarKey         *string   `json:"avatar_key"`
	AvatarURL         *string   `gorm:"-" json:"avatar_url,omitempty"`
	BankName          string    `gorm:"size:100" json:"bank_name"`
	BankAccountNumber string    `gorm:"size:50" json:"bank_account_number"`
	BankAccountName   string    `gorm:"size:100" json:"bank_account_name"`
	BankQRKey         *string   `json:"bank_qr_key"`
	BankQRURL         *string   `gorm:"-" json:"bank_qr_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for the ArtistProfile model
func (ArtistProfile) TableName() string {
	return "artist_profiles"
}
