package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CardKind constants
const (
	CardKindStamps   = "stamps"
	CardKindCashBack = "cashback"
)

// ExpiryPolicy constants
const (
	ExpiryUnlimited      = "unlimited"
	ExpiryFixedDate      = "fixed_date"
	ExpiryDaysAfterIssue = "days_after_issue"
)

// CardDefinition is the merchant-configured template governing accrual rules
// for all card instances issued from it. Definitions are immutable per
// version: an edit deactivates the current row and inserts a new one with
// Version+1, so instances keep pointing at the exact rules they were issued
// under.
type CardDefinition struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	MerchantID uint   `json:"merchant_id" gorm:"index;not null"`
	Name       string `json:"name"`
	Version    uint   `json:"version" gorm:"default:1"`
	Active     bool   `json:"active" gorm:"default:true"`

	CardKind   string `json:"card_kind" gorm:"default:'stamps'"`
	StageCount uint   `json:"stage_count"` // stamps per reward cycle; 0 for cashback cards

	IssuanceLimit uint `json:"issuance_limit"` // 0 = unlimited
	IssuedCount   uint `json:"issued_count" gorm:"default:0"`

	InitialStamps           uint            `json:"initial_stamps"`
	StampsPerScan           uint            `json:"stamps_per_scan" gorm:"default:1"`
	MaxStampsPerTransaction uint            `json:"max_stamps_per_transaction"` // 0 = unlimited
	MaxStampsPerDay         uint            `json:"max_stamps_per_day"`         // 0 = unlimited
	MinAmountForStamps      decimal.Decimal `json:"min_amount_for_stamps" gorm:"type:numeric(12,2)"`
	RequireProductSelection bool            `json:"require_product_selection"`

	ExpiryPolicy string     `json:"expiry_policy" gorm:"default:'unlimited'"`
	ExpiryDate   *time.Time `json:"expiry_date"` // set when ExpiryPolicy = fixed_date
	ExpiryDays   uint       `json:"expiry_days"` // set when ExpiryPolicy = days_after_issue

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
