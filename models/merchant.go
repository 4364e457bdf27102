package models

import (
	"time"

	"gorm.io/gorm"
)

// Merchant represents a tenant account. Every card definition, customer and
// product belongs to exactly one merchant.
type Merchant struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"not null" json:"name"`
	Email      string         `gorm:"uniqueIndex;not null" json:"email"`
	APIKeyHash string         `json:"-"`
	IsActive   bool           `json:"is_active" gorm:"default:true"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// Customer represents an end customer of a merchant. Card instances are
// issued against a customer.
type Customer struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	MerchantID uint           `json:"merchant_id" gorm:"index;not null"`
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Phone      string         `json:"phone"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
