package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a merchant catalog entry. Definitions that set
// RequireProductSelection force the scanner to attach one of these to a scan.
type Product struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	MerchantID uint            `json:"merchant_id" gorm:"index;not null"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price" gorm:"type:numeric(12,2)"`
	Active     bool            `json:"active" gorm:"default:true"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}
